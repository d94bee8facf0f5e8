// Package headless renders stage frames without a window and writes them as
// image files.
package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/avatar-stage/internal/assets"
	"github.com/Faultbox/avatar-stage/internal/config"
	"github.com/Faultbox/avatar-stage/internal/engine/raster"
	"github.com/Faultbox/avatar-stage/internal/logger"
	"github.com/Faultbox/avatar-stage/internal/snapshot"
	"github.com/Faultbox/avatar-stage/internal/stage"
)

// ErrNoModel is returned when the model failed to load.
var ErrNoModel = errors.New("model did not load")

const pollInterval = 10 * time.Millisecond

// Options controls a capture run.
type Options struct {
	Frames      int
	FPS         float64
	Dir         string
	Prefix      string
	Format      snapshot.Format
	Supersample int

	// Loader overrides the asset loader.
	Loader stage.Loader
}

// Run loads the configured model and renders Frames frames on a simulated
// clock advancing 1/FPS per frame, starting at the moment the load
// completes. It returns the written paths.
func Run(ctx context.Context, cfg *config.Config, o Options) ([]string, error) {
	log := logger.Named("headless")

	if o.Frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", o.Frames)
	}
	if o.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %v", o.FPS)
	}
	if o.Prefix == "" {
		o.Prefix = "frame"
	}
	if o.Format == "" {
		o.Format = snapshot.WebP
	}

	opts, err := stage.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("stage options: %w", err)
	}
	// Captures render every frame regardless of the scroll trigger.
	opts.Mode = stage.Continuous

	now := time.Unix(0, 0)
	opts.Now = func() time.Time { return now }
	step := time.Duration(float64(time.Second) / o.FPS)

	loader := o.Loader
	if loader == nil {
		loader = assets.NewLoader(cfg.Stage.LoadTimeout)
	}

	r := raster.New(o.Supersample)
	c := stage.New(opts, r, loader)
	defer c.Dispose()

	var loadErr error
	done := false
	c.OnEvent(func(ev stage.Event) {
		switch ev.Kind {
		case stage.EventLoaded:
			done = true
		case stage.EventLoadFailed:
			done, loadErr = true, ev.Err
		}
	})

	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			c.Frame()
		}
	}
	if loadErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoModel, loadErr)
	}

	capture := snapshot.NewCapture(o.Dir, o.Prefix, o.Format)
	paths := make([]string, 0, o.Frames)
	for i := 0; i < o.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		c.Frame()
		path, err := capture.Frame(r.Image(), i)
		if err != nil {
			return paths, fmt.Errorf("frame %d: %w", i, err)
		}
		paths = append(paths, path)
		now = now.Add(step)
	}

	w, h := r.OutputSize()
	log.Info("frames captured",
		zap.Int("frames", len(paths)),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.String("dir", o.Dir))
	return paths, nil
}
