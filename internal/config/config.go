// Package config loads photobooth settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// UI modes select which host surface owns the main goroutine.
const (
	UIWeb    = "web"
	UITray   = "tray"
	UIWindow = "window"
)

// Config holds all runtime configuration.
type Config struct {
	// Camera
	CameraID int `env:"PHOTOBOOTH_CAMERA_ID" envDefault:"0"`
	Width    int `env:"PHOTOBOOTH_WIDTH"     envDefault:"640"`
	Height   int `env:"PHOTOBOOTH_HEIGHT"    envDefault:"480"`
	FPS      int `env:"PHOTOBOOTH_FPS"       envDefault:"30"`

	// Host surface
	Addr      string `env:"PHOTOBOOTH_ADDR"       envDefault:"127.0.0.1:8080"`
	StaticDir string `env:"PHOTOBOOTH_STATIC_DIR"`
	UI        string `env:"PHOTOBOOTH_UI"         envDefault:"web"`

	// Capture. Zero cooldown re-captures on every matching frame.
	CaptureCooldown time.Duration `env:"PHOTOBOOTH_CAPTURE_COOLDOWN" envDefault:"0s"`

	// Capture hooks
	HookDir     string        `env:"PHOTOBOOTH_HOOK_DIR"`
	HookPlugin  string        `env:"PHOTOBOOTH_HOOK_PLUGIN"`
	HookAction  string        `env:"PHOTOBOOTH_HOOK_ACTION"  envDefault:"captured"`
	HookTimeout time.Duration `env:"PHOTOBOOTH_HOOK_TIMEOUT" envDefault:"5s"`

	// Detector
	MaxHands        int     `env:"PHOTOBOOTH_MAX_HANDS"          envDefault:"2"`
	MinConfidence   float64 `env:"PHOTOBOOTH_MIN_CONFIDENCE"     envDefault:"0.5"`
	MinTrackingConf float64 `env:"PHOTOBOOTH_MIN_TRACKING_CONF"  envDefault:"0.5"`
	MockFallback    bool    `env:"PHOTOBOOTH_MOCK_FALLBACK"      envDefault:"false"`
	ScriptPath      string  `env:"PHOTOBOOTH_MEDIAPIPE_SCRIPT"`
	PythonPath      string  `env:"PHOTOBOOTH_PYTHON"`

	// Logging
	LogLevel  string `env:"PHOTOBOOTH_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"PHOTOBOOTH_LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the config values are usable.
func (c *Config) Validate() error {
	if c.CameraID < 0 {
		return fmt.Errorf("invalid camera id: %d", c.CameraID)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution: %dx%d", c.Width, c.Height)
	}
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps must be between 1 and 120, got %d", c.FPS)
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is empty")
	}
	switch c.UI {
	case UIWeb, UITray, UIWindow:
	default:
		return fmt.Errorf("unknown ui mode %q (want web, tray or window)", c.UI)
	}
	if c.CaptureCooldown < 0 {
		return fmt.Errorf("capture cooldown must not be negative")
	}
	if c.HookPlugin != "" && c.HookDir == "" {
		return fmt.Errorf("hook plugin %q set without a hook directory", c.HookPlugin)
	}
	if c.HookTimeout <= 0 {
		return fmt.Errorf("hook timeout must be positive")
	}
	if c.MaxHands < 1 {
		return fmt.Errorf("max hands must be at least 1, got %d", c.MaxHands)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be between 0 and 1, got %f", c.MinConfidence)
	}
	if c.MinTrackingConf < 0 || c.MinTrackingConf > 1 {
		return fmt.Errorf("min tracking confidence must be between 0 and 1, got %f", c.MinTrackingConf)
	}
	return nil
}
