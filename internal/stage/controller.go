// Package stage drives the avatar scene: it owns the camera, lights and
// model, applies the responsive fit, completes the asynchronous model load
// and runs the render tick.
//
// A Controller is confined to the render thread. Only the model fetch runs
// elsewhere; its result is handed back over a channel drained by Frame.
package stage

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/avatar-stage/internal/assets"
	"github.com/Faultbox/avatar-stage/internal/engine/animation"
	"github.com/Faultbox/avatar-stage/internal/engine/camera"
	"github.com/Faultbox/avatar-stage/internal/engine/fit"
	"github.com/Faultbox/avatar-stage/internal/engine/scene"
	"github.com/Faultbox/avatar-stage/internal/engine/trigger"
	"github.com/Faultbox/avatar-stage/internal/logger"
)

// ErrDisposed is returned by Start after Dispose.
var ErrDisposed = errors.New("stage disposed")

// Renderer draws the scene. Implementations own the output surface.
type Renderer interface {
	SetSize(width, height int)
	SetPixelRatio(ratio float32)
	Render(s *scene.Scene, cam *camera.Perspective)
}

// Loader fetches a model.
type Loader interface {
	Load(ctx context.Context, url string) (*assets.Model, error)
}

type loadResult struct {
	model *assets.Model
	err   error
}

// Controller is the stage's single owner of scene state.
type Controller struct {
	opts     Options
	log      *zap.Logger
	renderer Renderer
	loader   Loader

	scene   *scene.Scene
	camera  *camera.Perspective
	metrics fit.Metrics
	ratio   float32

	// Set once by load completion.
	model  *scene.Node
	mixer  *animation.Mixer
	action *animation.Action
	clock  *animation.Clock

	trigger *trigger.ScrollTrigger
	scrollY float32

	started  bool
	running  bool
	ticked   bool
	disposed bool

	cancel  context.CancelFunc
	group   *errgroup.Group
	results chan loadResult

	observers []func(Event)
	frames    uint64
}

// New builds the camera, lights and empty scene and fits them to the initial
// viewport. Nothing is fetched until Start.
func New(opts Options, r Renderer, l Loader) *Controller {
	c := &Controller{
		opts:     opts,
		log:      logger.Named("stage"),
		renderer: r,
		loader:   l,
		scene:    scene.New(),
		camera:   camera.NewPerspective(camera.DefaultFOV, 1, camera.DefaultNear, camera.DefaultFar),
		results:  make(chan loadResult, 1),
	}
	c.scene.Lights = opts.Lights

	if opts.Mode == ScrollGated {
		t := opts.Trigger
		c.trigger = trigger.New(t.Start, t.End, t.ElementTop, t.ElementHeight)
	}

	c.Resize(opts.Width, opts.Height, opts.PixelRatio)

	c.log.Info("stage created",
		zap.String("url", opts.ModelURL),
		zap.Stringer("mode", opts.Mode),
		zap.Int("lights", len(opts.Lights)))
	return c
}

// OnEvent registers an observer for status events. Observers run on the
// render thread.
func (c *Controller) OnEvent(fn func(Event)) {
	c.observers = append(c.observers, fn)
}

func (c *Controller) emit(ev Event) {
	for _, fn := range c.observers {
		fn(ev)
	}
}

// Start begins loading the model and, in continuous mode, starts the render
// tick. Calling Start again has no effect.
func (c *Controller) Start(ctx context.Context) error {
	if c.disposed {
		return ErrDisposed
	}
	if c.started {
		return nil
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	c.group = g

	loader, url, results := c.loader, c.opts.ModelURL, c.results
	g.Go(func() error {
		model, err := loader.Load(gctx, url)
		results <- loadResult{model: model, err: err}
		return nil
	})

	c.log.Info("stage started", zap.String("url", url))

	switch c.opts.Mode {
	case Continuous:
		c.setRunning(true)
	case ScrollGated:
		c.evaluateTrigger()
	}
	return nil
}

// Dispose cancels a pending load, waits for it and stops the render tick.
// It is safe to call more than once.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.cancel != nil {
		c.cancel()
	}
	if c.group != nil {
		_ = c.group.Wait()
	}
	select {
	case <-c.results:
	default:
	}
	c.running = false
	c.log.Info("stage disposed", zap.Uint64("frames", c.frames))
}

// Frame is called once per display refresh. It applies a finished load and
// then ticks if the stage is running. It reports whether a frame was
// rendered.
func (c *Controller) Frame() bool {
	if c.disposed {
		return false
	}
	c.pollLoad()
	if !c.running {
		return false
	}
	c.tick()
	return true
}

func (c *Controller) tick() {
	if c.clock != nil {
		dt := c.clock.Delta()
		if c.mixer != nil {
			c.mixer.Update(dt)
		}
	}
	c.renderer.Render(c.scene, c.camera)
	c.frames++
}

func (c *Controller) pollLoad() {
	select {
	case res := <-c.results:
		c.completeLoad(res)
	default:
	}
}

func (c *Controller) completeLoad(res loadResult) {
	url := c.opts.ModelURL
	if res.err != nil {
		c.log.Error("model load failed", zap.String("url", url), zap.Error(res.err))
		c.emit(Event{Kind: EventLoadFailed, URL: url, Err: res.err})
		return
	}

	root := res.model.Root
	root.SetUniformScale(fit.BaseScale)
	root.Traverse(func(n *scene.Node) {
		if !n.IsMesh() {
			return
		}
		n.CastShadow = true
		n.ReceiveShadow = true
		for _, m := range n.Meshes {
			if m.Material == nil {
				continue
			}
			m.Material.Roughness = c.opts.Roughness
			m.Material.Metalness = c.opts.Metalness
			m.Material.MarkNeedsUpdate()
		}
	})
	c.scene.Add(root)
	c.model = root

	clips := res.model.Clips
	if len(clips) > 0 {
		idx := c.opts.Animation.Clip
		if idx < 0 || idx >= len(clips) {
			c.log.Warn("clip index out of range, using first clip",
				zap.Int("clip", idx), zap.Int("clips", len(clips)))
			idx = 0
		}
		c.mixer = animation.NewMixer(root)
		c.action = c.mixer.ClipAction(clips[idx])
		c.action.TimeScale = c.opts.Animation.TimeScale
		c.action.Loop = c.opts.Animation.Loop
		c.action.ClampWhenFinished = c.opts.Animation.ClampWhenFinished
		c.action.Play()
	}

	if c.opts.Now != nil {
		c.clock = animation.NewClockWithSource(c.opts.Now)
	} else {
		c.clock = animation.NewClock()
	}

	c.log.Info("model attached",
		zap.String("url", url),
		zap.Int("clips", len(clips)),
		zap.Bool("animated", c.mixer != nil))
	c.emit(Event{Kind: EventLoaded, URL: url, Clips: len(clips)})
}

// Resize applies the responsive fit for a w x h viewport with the given
// device pixel ratio. The model is rescaled only if it has loaded.
func (c *Controller) Resize(width, height int, pixelRatio float32) {
	m := fit.Compute(width, height)
	if m.Clamped {
		c.log.Warn("degenerate viewport clamped",
			zap.Int("width", width), zap.Int("height", height))
	}
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	c.metrics = m
	c.ratio = pixelRatio

	c.camera.Aspect = m.Aspect
	c.camera.UpdateProjectionMatrix()
	c.camera.SetPosition(m.CameraPosition)

	c.renderer.SetSize(m.Width, m.Height)
	c.renderer.SetPixelRatio(pixelRatio)

	if c.model != nil {
		c.model.SetUniformScale(m.ModelScale)
	}

	c.log.Debug("viewport resized",
		zap.Int("width", m.Width),
		zap.Int("height", m.Height),
		zap.Float32("factor", m.Factor))

	if c.started && !c.disposed {
		c.evaluateTrigger()
	}
}

// Scroll records the page scroll offset in pixels. In scroll-gated mode it
// re-evaluates the trigger.
func (c *Controller) Scroll(y float32) {
	c.scrollY = y
	if c.started && !c.disposed {
		c.evaluateTrigger()
	}
}

func (c *Controller) evaluateTrigger() {
	if c.trigger == nil {
		return
	}
	for _, ev := range c.trigger.Update(c.scrollY, float32(c.metrics.Height)) {
		c.log.Debug("scroll trigger", zap.Stringer("event", ev), zap.Float32("scroll", c.scrollY))
		switch ev {
		case trigger.Enter, trigger.EnterBack:
			if !c.ticked || c.opts.Trigger.Exit == ExitPause {
				c.setRunning(true)
			}
		case trigger.Leave, trigger.LeaveBack:
			if c.opts.Trigger.Exit == ExitPause {
				c.setRunning(false)
			}
		}
	}
}

func (c *Controller) setRunning(on bool) {
	if c.running == on {
		return
	}
	c.running = on
	if on {
		// Time spent paused is not animation time.
		if c.ticked && c.clock != nil {
			c.clock.Restart()
		}
		c.ticked = true
		c.log.Info("render tick started")
		c.emit(Event{Kind: EventStarted, URL: c.opts.ModelURL})
		return
	}
	c.log.Info("render tick paused")
	c.emit(Event{Kind: EventPaused, URL: c.opts.ModelURL})
}

// Running reports whether Frame renders.
func (c *Controller) Running() bool { return c.running }

// Loaded reports whether the model is attached.
func (c *Controller) Loaded() bool { return c.model != nil }

// Model returns the attached model root, or nil before load completes.
func (c *Controller) Model() *scene.Node { return c.model }

// Action returns the playing clip action, or nil.
func (c *Controller) Action() *animation.Action { return c.action }

// Scene returns the scene being rendered.
func (c *Controller) Scene() *scene.Scene { return c.scene }

// Camera returns the stage camera.
func (c *Controller) Camera() *camera.Perspective { return c.camera }

// Metrics returns the last applied fit.
func (c *Controller) Metrics() fit.Metrics { return c.metrics }

// PixelRatio returns the last applied device pixel ratio.
func (c *Controller) PixelRatio() float32 { return c.ratio }

// Frames returns the number of rendered frames.
func (c *Controller) Frames() uint64 { return c.frames }
