package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagVariant    = flag.String("variant", "", "Stage variant: classic, studio, scroll or lite")
	flagURL        = flag.String("url", "", "Model URL or path")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagControl    = flag.String("control", "", "Enable the websocket control channel on this address")
	flagTimeout    = flag.Duration("timeout", 0, "Model load timeout (0 = none)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagURL != "" {
		cfg.Stage.ModelURL = *flagURL
	}
	if *flagTimeout > 0 {
		cfg.Stage.LoadTimeout = *flagTimeout
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagControl != "" {
		cfg.Control.Enabled = true
		cfg.Control.Addr = *flagControl
	}
}
