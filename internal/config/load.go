package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < variant < file < flags.
// The variant comes from the -variant flag, else the file's stage.variant.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	var data []byte
	if configPath != "" {
		var err error
		if data, err = os.ReadFile(configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	variant := *flagVariant
	if variant == "" && data != nil {
		var err error
		if variant, err = peekVariant(data); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}
	if variant != "" {
		if err := cfg.ApplyVariant(variant); err != nil {
			return nil, err
		}
	}

	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
		// A file naming one variant must not relabel a flag-selected one.
		if *flagVariant != "" {
			cfg.Stage.Variant = *flagVariant
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func peekVariant(data []byte) (string, error) {
	var head struct {
		Stage struct {
			Variant string `yaml:"variant"`
		} `yaml:"stage"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return "", err
	}
	return head.Stage.Variant, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./stage.yaml",
		filepath.Join(ConfigDir(), "stage.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "AvatarStage")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "AvatarStage")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "avatar-stage")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "avatar-stage")
	}
}
