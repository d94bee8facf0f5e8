package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(3, 2, color.NRGBA{B: 255, A: 128})
	return img
}

func TestEncodeWebPRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), WebP); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	img, err := webp.Decode(&buf)
	if err != nil {
		t.Fatalf("webp.Decode: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("decoded size = %v, want 4x3", img.Bounds())
	}
	r, _, _, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || a>>8 != 255 {
		t.Errorf("pixel (0,0) = %v, want opaque red", img.At(0, 0))
	}
	if _, _, _, a := img.At(1, 1).RGBA(); a != 0 {
		t.Errorf("pixel (1,1) alpha = %d, want transparent", a)
	}
}

func TestEncodeBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), BMP); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := bmp.Decode(&buf)
	if err != nil {
		t.Fatalf("bmp.Decode: %v", err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("pixel (0,0) = %v, want red", img.At(0, 0))
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"webp", WebP, false},
		{".PNG", PNG, false},
		{"bmp", BMP, false},
		{"jpeg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestCaptureFromImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	c := NewCapture(dir, "stage", WebP)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	path, err := c.FromImage(testImage())
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if want := filepath.Join(dir, "stage_2024-05-01_12-30-00.000.webp"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := webp.Decode(f); err != nil {
		t.Errorf("written file is not WebP: %v", err)
	}
}

func TestCaptureFrameSequence(t *testing.T) {
	dir := t.TempDir()
	c := NewCapture(dir, "frame", PNG)

	for i := 1; i <= 2; i++ {
		path, err := c.Frame(testImage(), i)
		if err != nil {
			t.Fatalf("Frame(%d): %v", i, err)
		}
		if !strings.HasSuffix(path, "frame_000"+string(rune('0'+i))+".png") {
			t.Errorf("Frame(%d) path = %s", i, path)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := png.Decode(f); err != nil {
			t.Errorf("Frame(%d) is not PNG: %v", i, err)
		}
		f.Close()
	}
}

func TestFromPixelsFlips(t *testing.T) {
	// Two rows, bottom row red, top row green (OpenGL order: bottom first).
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 255, 0, 255, 0, 255, 0, 255,
	}
	img, err := FlipRGBA(pixels, 2, 2)
	if err != nil {
		t.Fatalf("FlipRGBA: %v", err)
	}
	if img.Pix[1] != 255 {
		t.Errorf("top-left = %v, want green", img.Pix[:4])
	}

	if _, err := FlipRGBA(pixels, 3, 3); err == nil {
		t.Error("size mismatch should fail")
	}

	c := NewCapture(t.TempDir(), "gl", WebP)
	if _, err := c.FromPixels(pixels, 2, 2); err != nil {
		t.Errorf("FromPixels: %v", err)
	}
}
