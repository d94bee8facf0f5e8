package stage

import (
	"fmt"
	"time"

	"github.com/Faultbox/avatar-stage/internal/config"
	"github.com/Faultbox/avatar-stage/internal/engine/animation"
	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
	"github.com/Faultbox/avatar-stage/internal/engine/trigger"
)

// Mode selects when the render tick runs.
type Mode int

const (
	// Continuous ticks every frame from Start until Dispose.
	Continuous Mode = iota
	// ScrollGated waits for the scroll trigger before ticking.
	ScrollGated
)

func (m Mode) String() string {
	if m == ScrollGated {
		return config.ModeScroll
	}
	return config.ModeContinuous
}

// ExitPolicy decides what a scroll-gated stage does when the trigger range
// is left.
type ExitPolicy int

const (
	// ExitKeep keeps ticking once started.
	ExitKeep ExitPolicy = iota
	// ExitPause stops ticking outside the range and resumes on re-entry.
	ExitPause
)

// TriggerOptions places the trigger element on the page.
type TriggerOptions struct {
	Start         trigger.Position
	End           trigger.Position
	ElementTop    float32
	ElementHeight float32
	Exit          ExitPolicy
}

// AnimationOptions configures playback of the model's clip.
type AnimationOptions struct {
	Clip              int
	TimeScale         float32
	Loop              animation.LoopMode
	ClampWhenFinished bool
}

// Options configures a Controller.
type Options struct {
	ModelURL  string
	Lights    lighting.Rig
	Roughness float32
	Metalness float32
	Mode      Mode
	Trigger   TriggerOptions
	Animation AnimationOptions

	// Initial viewport.
	Width      int
	Height     int
	PixelRatio float32

	// Now is the clock source; nil uses time.Now.
	Now func() time.Time
}

// DefaultOptions returns the classic stage with an 800x600 viewport.
func DefaultOptions() Options {
	opts, err := OptionsFromConfig(config.Default())
	if err != nil {
		panic(err)
	}
	return opts
}

// OptionsFromConfig translates loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := Options{
		ModelURL:  cfg.Stage.ModelURL,
		Lights:    cfg.Lights,
		Roughness: cfg.Material.Roughness,
		Metalness: cfg.Material.Metalness,
		Animation: AnimationOptions{
			Clip:              cfg.Animation.Clip,
			TimeScale:         cfg.Animation.TimeScale,
			Loop:              animation.LoopRepeat,
			ClampWhenFinished: cfg.Animation.ClampWhenFinished,
		},
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		PixelRatio: 1,
	}
	if cfg.Animation.LoopOnce {
		opts.Animation.Loop = animation.LoopOnce
	}

	switch cfg.Stage.Mode {
	case config.ModeContinuous:
		opts.Mode = Continuous
	case config.ModeScroll:
		opts.Mode = ScrollGated
	default:
		return Options{}, fmt.Errorf("unknown mode %q", cfg.Stage.Mode)
	}

	start, err := trigger.ParsePosition(cfg.Trigger.Start)
	if err != nil {
		return Options{}, fmt.Errorf("trigger start: %w", err)
	}
	end, err := trigger.ParsePosition(cfg.Trigger.End)
	if err != nil {
		return Options{}, fmt.Errorf("trigger end: %w", err)
	}
	opts.Trigger = TriggerOptions{
		Start:         start,
		End:           end,
		ElementTop:    cfg.Trigger.ElementTop,
		ElementHeight: cfg.Trigger.ElementHeight,
	}
	switch cfg.Trigger.Exit {
	case config.ExitKeep, "":
		opts.Trigger.Exit = ExitKeep
	case config.ExitPause:
		opts.Trigger.Exit = ExitPause
	default:
		return Options{}, fmt.Errorf("unknown exit policy %q", cfg.Trigger.Exit)
	}
	return opts, nil
}
