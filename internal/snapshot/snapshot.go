// Package snapshot writes rendered frames to disk as WebP, PNG or BMP files.
package snapshot

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
)

// Format is an output image encoding.
type Format string

const (
	WebP Format = "webp"
	PNG  Format = "png"
	BMP  Format = "bmp" // no alpha
)

// ParseFormat accepts "webp", "png" or "bmp", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case WebP, PNG, BMP:
		return f, nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// Encode writes img in the given format. WebP output is lossless.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case WebP:
		return nativewebp.Encode(w, img, nil)
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("unknown image format %q", f)
}

// Capture names and writes snapshot files.
type Capture struct {
	outputDir string
	prefix    string
	format    Format
	now       func() time.Time
}

// NewCapture creates a capture writing <prefix>_<timestamp>.<format> files
// into outputDir.
func NewCapture(outputDir, prefix string, format Format) *Capture {
	return &Capture{
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		now:       time.Now,
	}
}

// SetOutputDir sets the output directory for snapshots.
func (c *Capture) SetOutputDir(dir string) {
	c.outputDir = dir
}

// FromPixels saves bottom-up RGBA rows as read back from OpenGL.
func (c *Capture) FromPixels(pixels []byte, width, height int) (string, error) {
	img, err := FlipRGBA(pixels, width, height)
	if err != nil {
		return "", err
	}
	return c.FromImage(img)
}

// FromImage saves img under a timestamped name.
func (c *Capture) FromImage(img image.Image) (string, error) {
	return c.write(c.GenerateFilename(), img)
}

// Frame saves img as frame number n of a sequence: <prefix>_0001.<format>.
func (c *Capture) Frame(img image.Image, n int) (string, error) {
	return c.write(c.path(fmt.Sprintf("%s_%04d.%s", c.prefix, n, c.format)), img)
}

// GenerateFilename returns the timestamped path FromImage would write.
func (c *Capture) GenerateFilename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05.000")
	return c.path(fmt.Sprintf("%s_%s.%s", c.prefix, timestamp, c.format))
}

func (c *Capture) path(name string) string {
	if c.outputDir != "" {
		return filepath.Join(c.outputDir, name)
	}
	return name
}

func (c *Capture) write(filename string, img image.Image) (string, error) {
	// Create output directory if needed
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := Encode(file, img, c.format); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding %s: %w", c.format, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}
	return filename, nil
}

// FlipRGBA copies bottom-up RGBA rows into a top-down image.
func FlipRGBA(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}
	return img, nil
}
