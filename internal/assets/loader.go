// Package assets fetches avatar models and converts them into scene graphs
// and animation clips.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/avatar-stage/internal/engine/animation"
	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/internal/logger"
)

// ErrLoad matches every LoadError with errors.Is.
var ErrLoad = errors.New("asset load failed")

// Load stages reported by LoadError.
const (
	StageFetch  = "fetch"
	StageDecode = "decode"
	StageBuild  = "build"
)

// LoadError describes a failed model load.
type LoadError struct {
	URL   string
	Stage string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %s: %v", e.URL, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports true for ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Model is a loaded avatar: a root node holding the converted glTF scene and
// the animation clips targeting its nodes.
type Model struct {
	Root      *scene.Node
	Clips     []*animation.Clip
	Materials []*scene.Material
}

// Loader fetches and decodes models.
type Loader struct {
	// Client is used for http and https URLs.
	Client *http.Client
	// Timeout bounds a whole load. Zero means no limit.
	Timeout time.Duration
	// MaxBytes rejects bodies larger than this. Zero means no limit.
	MaxBytes int64

	cache *Cache
}

// NewLoader creates a loader with its own cache.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{
		Client:  http.DefaultClient,
		Timeout: timeout,
		cache:   NewCache(),
	}
}

// Cache returns the loader's byte cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load fetches src and converts it into a Model. Every failure is a *LoadError.
func (l *Loader) Load(ctx context.Context, src string) (*Model, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	log := logger.Named("assets")
	start := time.Now()

	data, cached, err := l.fetch(ctx, src)
	if err != nil {
		return nil, &LoadError{URL: src, Stage: StageFetch, Err: err}
	}

	handler, err := l.resources(ctx, src)
	if err != nil {
		return nil, &LoadError{URL: src, Stage: StageFetch, Err: err}
	}
	doc, err := DecodeFrom(data, handler)
	if err != nil {
		return nil, &LoadError{URL: src, Stage: StageDecode, Err: err}
	}

	model, err := Build(doc)
	if err != nil {
		return nil, &LoadError{URL: src, Stage: StageBuild, Err: err}
	}

	var hits, misses int
	if l.cache != nil {
		hits, misses = l.cache.Stats()
	}
	log.Info("model loaded",
		zap.String("url", src),
		zap.Int("bytes", len(data)),
		zap.Bool("cached", cached),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses),
		zap.Int("clips", len(model.Clips)),
		zap.Duration("took", time.Since(start)))
	return model, nil
}

// Decode parses glTF JSON or GLB bytes. External buffers resolve relative to
// the working directory.
func Decode(data []byte) (*gltf.Document, error) {
	return DecodeFrom(data, nil)
}

// DecodeFrom parses glTF JSON or GLB bytes, reading external buffers through
// h. A nil h reads them relative to the working directory.
func DecodeFrom(data []byte, h gltf.ReadHandler) (*gltf.Document, error) {
	dec := gltf.NewDecoder(bytes.NewReader(data))
	if h != nil {
		dec = dec.WithReadHandler(h)
	}
	doc := new(gltf.Document)
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// resources returns the handler resolving external buffer URIs against src:
// the directory of a local file or the base of an http(s) URL.
func (l *Loader) resources(ctx context.Context, src string) (gltf.ReadHandler, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return &remoteResources{ctx: ctx, loader: l, base: u}, nil
	case "file":
		return &gltf.RelativeFileHandler{Dir: filepath.Dir(u.Path)}, nil
	}
	return &gltf.RelativeFileHandler{Dir: filepath.Dir(src)}, nil
}

// remoteResources fetches buffers referenced by a remote document.
type remoteResources struct {
	ctx    context.Context
	loader *Loader
	base   *url.URL
}

func (r *remoteResources) ReadFullResource(uri string, data []byte) error {
	ref, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("parsing buffer uri: %w", err)
	}
	abs := r.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return fmt.Errorf("buffer %q: unsupported scheme %q", uri, abs.Scheme)
	}
	body, _, err := r.loader.fetch(r.ctx, abs.String())
	if err != nil {
		return fmt.Errorf("buffer %q: %w", uri, err)
	}
	if len(body) < len(data) {
		return fmt.Errorf("buffer %q: %w", uri, io.ErrUnexpectedEOF)
	}
	copy(data, body)
	return nil
}

// fetch returns the bytes of src and whether they came from the cache.
func (l *Loader) fetch(ctx context.Context, src string) ([]byte, bool, error) {
	if l.cache != nil {
		if data, ok := l.cache.Get(src); ok {
			return data, true, nil
		}
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, false, fmt.Errorf("parsing url: %w", err)
	}

	var data []byte
	switch u.Scheme {
	case "http", "https":
		data, err = l.get(ctx, src)
	case "file":
		data, err = l.readFile(ctx, u.Path)
	case "":
		data, err = l.readFile(ctx, src)
	default:
		return nil, false, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, false, err
	}

	if l.cache != nil {
		l.cache.Set(src, data)
	}
	return data, false, nil
}

func (l *Loader) get(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return l.readAll(resp.Body)
}

func (l *Loader) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readAll(f)
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	if l.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.MaxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", l.MaxBytes)
	}
	return data, nil
}
