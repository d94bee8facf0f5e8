// Package config handles stage configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/avatar-stage/internal/engine/lighting"
)

// DefaultModelURL is the avatar every variant loads unless overridden.
const DefaultModelURL = "https://raw.githubusercontent.com/brice913/finalthree/main/perfectavatar.glb"

// Render-trigger policies.
const (
	ModeContinuous = "continuous"
	ModeScroll     = "scroll"
)

// Scroll exit policies.
const (
	ExitKeep  = "keep"
	ExitPause = "pause"
)

// Config holds all stage settings.
type Config struct {
	Stage     StageConfig     `yaml:"stage"`
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Lights    lighting.Rig    `yaml:"lights"`
	Material  MaterialConfig  `yaml:"material"`
	Animation AnimationConfig `yaml:"animation"`
	Trigger   TriggerConfig   `yaml:"trigger"`
	Control   ControlConfig   `yaml:"control"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StageConfig selects the variant, the asset and the render-trigger policy.
type StageConfig struct {
	Variant     string        `yaml:"variant"`
	ModelURL    string        `yaml:"model_url"`
	Mode        string        `yaml:"mode"`         // continuous | scroll
	LoadTimeout time.Duration `yaml:"load_timeout"` // 0 = no limit
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Fullscreen    bool    `yaml:"fullscreen"`
	VSync         bool    `yaml:"vsync"`
	FPSLimit      int     `yaml:"fps_limit"`
	MSAA          int     `yaml:"msaa"`
	ShadowMapSize int     `yaml:"shadow_map_size"`
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"` // 0 = uncapped
}

// MaterialConfig holds the constants forced onto every loaded material.
type MaterialConfig struct {
	Roughness float32 `yaml:"roughness"`
	Metalness float32 `yaml:"metalness"`
}

// AnimationConfig describes how the model's clip is played.
type AnimationConfig struct {
	Clip              int     `yaml:"clip"`
	TimeScale         float32 `yaml:"time_scale"`
	LoopOnce          bool    `yaml:"loop_once"`
	ClampWhenFinished bool    `yaml:"clamp_when_finished"`
}

// TriggerConfig places the scroll trigger element on the virtual page.
type TriggerConfig struct {
	Start         string  `yaml:"start"`
	End           string  `yaml:"end"`
	ElementTop    float32 `yaml:"element_top"`
	ElementHeight float32 `yaml:"element_height"`
	Exit          string  `yaml:"exit"`        // keep | pause
	ScrollStep    float32 `yaml:"scroll_step"` // pixels per wheel notch
	PageHeight    float32 `yaml:"page_height"`
}

// ControlConfig holds the host control channel settings.
type ControlConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// DeferStart waits for a "start" command instead of starting at launch.
	DeferStart     bool     `yaml:"defer_start"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SnapshotConfig holds settings for saved frames.
type SnapshotConfig struct {
	Dir         string `yaml:"dir"`
	Supersample int    `yaml:"supersample"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the classic variant applied.
func Default() *Config {
	cfg := &Config{
		Stage: StageConfig{
			ModelURL: DefaultModelURL,
		},
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			MSAA:       4,
		},
		Animation: AnimationConfig{
			Clip:              0,
			TimeScale:         0.5,
			LoopOnce:          true,
			ClampWhenFinished: true,
		},
		Trigger: TriggerConfig{
			Start:         "top 80%",
			End:           "bottom 20%",
			ElementTop:    720,
			ElementHeight: 720,
			Exit:          ExitKeep,
			ScrollStep:    60,
			PageHeight:    2160,
		},
		Control: ControlConfig{
			Enabled: false,
			Addr:    "127.0.0.1:7420",
		},
		Snapshot: SnapshotConfig{
			Dir:         "snapshots",
			Supersample: 2,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
	if err := cfg.ApplyVariant(VariantClassic); err != nil {
		panic(err)
	}
	return cfg
}

// Validate reports settings the stage cannot run with.
func (c *Config) Validate() error {
	if c.Stage.ModelURL == "" {
		return fmt.Errorf("stage.model_url is empty")
	}
	switch c.Stage.Mode {
	case ModeContinuous, ModeScroll:
	default:
		return fmt.Errorf("stage.mode %q: want %s or %s", c.Stage.Mode, ModeContinuous, ModeScroll)
	}
	switch c.Trigger.Exit {
	case ExitKeep, ExitPause:
	default:
		return fmt.Errorf("trigger.exit %q: want %s or %s", c.Trigger.Exit, ExitKeep, ExitPause)
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics size %dx%d must be positive", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Graphics.ShadowMapSize < 0 {
		return fmt.Errorf("graphics.shadow_map_size %d is negative", c.Graphics.ShadowMapSize)
	}
	if len(c.Lights) > lighting.MaxLights {
		return fmt.Errorf("%d lights exceed the limit of %d", len(c.Lights), lighting.MaxLights)
	}
	if c.Animation.TimeScale < 0 {
		return fmt.Errorf("animation.time_scale %v is negative", c.Animation.TimeScale)
	}
	return nil
}
