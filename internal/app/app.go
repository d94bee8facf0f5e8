// Package app hosts the stage in an SDL window: it runs the frame loop,
// forwards window events and drains host control commands.
package app

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/avatar-stage/internal/assets"
	"github.com/Faultbox/avatar-stage/internal/config"
	"github.com/Faultbox/avatar-stage/internal/control"
	"github.com/Faultbox/avatar-stage/internal/engine/input"
	"github.com/Faultbox/avatar-stage/internal/engine/renderer"
	"github.com/Faultbox/avatar-stage/internal/engine/window"
	"github.com/Faultbox/avatar-stage/internal/logger"
	"github.com/Faultbox/avatar-stage/internal/snapshot"
	"github.com/Faultbox/avatar-stage/internal/stage"
)

// App is the windowed stage host.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	stage    *stage.Controller
	control  *control.Server
	capture  *snapshot.Capture
	scroll   Scroller
	running  bool
}

// New opens the window, creates the renderer and builds the stage. A
// missing window or GL context is fatal.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg, log: logger.Named("app")}

	opts, err := stage.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("stage options: %w", err)
	}

	a.window, err = window.New(window.Config{
		Title:      "Avatar Stage",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		MSAA:       cfg.Graphics.MSAA,
	})
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	// The renderer needs the GL context of the window.
	a.renderer, err = renderer.New(renderer.Config{
		Width:         cfg.Graphics.Width,
		Height:        cfg.Graphics.Height,
		ShadowMapSize: int32(cfg.Graphics.ShadowMapSize),
		MSAA:          cfg.Graphics.MSAA,
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	a.input = input.New()
	a.capture = snapshot.NewCapture(cfg.Snapshot.Dir, "stage", snapshot.WebP)

	w, h := a.window.Size()
	opts.Width, opts.Height = w, h
	opts.PixelRatio = capRatio(a.window.PixelRatio(), cfg.Graphics.MaxPixelRatio)

	a.scroll = Scroller{Step: cfg.Trigger.ScrollStep, PageHeight: cfg.Trigger.PageHeight, Viewport: float32(h)}

	a.stage = stage.New(opts, a.renderer, assets.NewLoader(cfg.Stage.LoadTimeout))

	if cfg.Control.Enabled {
		a.control = control.NewServer(cfg.Control.Addr, cfg.Control.AllowedOrigins)
		a.stage.OnEvent(func(ev stage.Event) {
			a.control.Broadcast(control.StatusFromEvent(ev))
		})
	}

	a.log.Info("app initialized",
		zap.String("variant", cfg.Stage.Variant),
		zap.Bool("control", cfg.Control.Enabled))
	return a, nil
}

// Run drives frames until the window closes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if a.control != nil {
		g.Go(func() error {
			if err := a.control.ListenAndServe(gctx); err != nil {
				return fmt.Errorf("control channel: %w", err)
			}
			return nil
		})
	}

	if a.control == nil || !a.cfg.Control.DeferStart {
		if err := a.Start(ctx); err != nil {
			return err
		}
	} else {
		a.log.Info("waiting for start command", zap.String("addr", a.cfg.Control.Addr))
	}

	var frameBudget time.Duration
	if a.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(a.cfg.Graphics.FPSLimit)
	}

	frameCount := 0
	fpsTimer := time.Now()
	a.running = true

	for a.running {
		frameStart := time.Now()

		if gctx.Err() != nil {
			break
		}
		if a.input.Update() {
			break
		}
		a.handleInput()
		a.drainCommands(ctx)

		if !a.stage.Frame() {
			a.renderer.Clear()
		}
		if a.input.IsKeyPressed(sdl.SCANCODE_F12) {
			a.saveSnapshot()
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Uint64("frames", a.stage.Frames()))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if rest := frameBudget - time.Since(frameStart); rest > 0 {
				time.Sleep(rest)
			}
		}
	}

	a.stage.Dispose()
	cancel()
	return g.Wait()
}

func (a *App) handleInput() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			ratio := capRatio(a.window.PixelRatio(), a.cfg.Graphics.MaxPixelRatio)
			a.Resize(event.Width, event.Height, ratio)
		case input.EventScroll:
			a.stage.Scroll(a.scroll.Wheel(event.Scroll))
		case input.EventKeyDown:
			if event.Key == sdl.SCANCODE_ESCAPE {
				a.running = false
			}
		}
	}
}

func (a *App) drainCommands(ctx context.Context) {
	if a.control == nil {
		return
	}
	for {
		select {
		case cmd := <-a.control.Commands():
			if err := control.Dispatch(ctx, a, cmd); err != nil {
				a.log.Warn("control command failed", zap.String("op", cmd.Op), zap.Error(err))
			}
		default:
			return
		}
	}
}

// saveSnapshot writes the current view. With supersampling the scene is
// redrawn offscreen; otherwise the back buffer is read directly.
func (a *App) saveSnapshot() {
	var (
		path string
		err  error
	)
	if ss := a.cfg.Snapshot.Supersample; ss > 1 {
		var img image.Image
		img, err = a.renderer.Snapshot(a.stage.Scene(), a.stage.Camera(), ss)
		if err == nil {
			path, err = a.capture.FromImage(img)
		}
	} else {
		pixels, w, h := a.renderer.Capture()
		path, err = a.capture.FromPixels(pixels, w, h)
	}
	if err != nil {
		a.log.Error("snapshot failed", zap.Error(err))
		return
	}
	a.log.Info("snapshot saved", zap.String("path", path))
}

// Start starts the stage.
func (a *App) Start(ctx context.Context) error {
	return a.stage.Start(ctx)
}

// Dispose disposes the stage and ends the frame loop.
func (a *App) Dispose() {
	a.stage.Dispose()
	a.running = false
}

// Resize resizes the stage and the virtual page viewport.
func (a *App) Resize(width, height int, pixelRatio float32) {
	a.stage.Resize(width, height, pixelRatio)
	a.stage.Scroll(a.scroll.SetViewport(float32(height)))
}

// Scroll jumps to a page offset.
func (a *App) Scroll(y float32) {
	a.stage.Scroll(a.scroll.Set(y))
}

// Close releases the renderer and window.
func (a *App) Close() {
	a.log.Info("closing app")
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
