package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidAnchor = errors.New("invalid window anchor")
	ErrInvalidSize   = errors.New("window size_percent out of range")
)

// LoadConfig reads and validates the config file. A missing file is not an
// error: the launcher runs fine on defaults alone.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the config to the specified path.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func validate(cfg *Config) error {
	ok := false
	for _, a := range Anchors {
		if cfg.Window.Anchor == a {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAnchor, cfg.Window.Anchor)
	}
	if cfg.Window.SizePercent < 1 || cfg.Window.SizePercent > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, cfg.Window.SizePercent)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.MenuLabel == "" {
		cfg.MenuLabel = "Command Window"
	}
	if cfg.Window.Anchor == "" {
		cfg.Window.Anchor = "top"
	}
	if cfg.Window.SizePercent == 0 {
		cfg.Window.SizePercent = 40
	}
	if cfg.Animation.DurationMS == 0 {
		cfg.Animation.DurationMS = 150
	}
	if cfg.Engine.Command == "" {
		cfg.Engine.Command = "alacritty"
	}
	if cfg.Engine.ReadyTimeoutMS == 0 {
		cfg.Engine.ReadyTimeoutMS = 5000
	}
}
