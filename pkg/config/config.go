// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/physics"
)

// ErrUnknownFormat is returned for config files that are neither YAML nor JSON
var ErrUnknownFormat = errors.New("unknown config format")

// Config contains the complete configuration of a desktop pet
type Config struct {
	General GeneralConfig `yaml:"general" json:"general"`
	Physics PhysicsConfig `yaml:"physics" json:"physics"`
	Scanner ScannerConfig `yaml:"scanner" json:"scanner"`
}

// GeneralConfig contains window-level settings
type GeneralConfig struct {
	AlwaysOnTop    bool `yaml:"always_on_top" json:"alwaysOnTop"`
	PhysicsEnabled bool `yaml:"physics_enabled" json:"physicsEnabled"`
	Sound          bool `yaml:"sound" json:"sound"`
}

// PhysicsConfig contains the simulation parameters. Values are clamped when
// used, so out-of-range settings degrade instead of failing to load.
type PhysicsConfig struct {
	Gravity         float64 `yaml:"gravity" json:"gravity"`
	GravityEnabled  bool    `yaml:"gravity_enabled" json:"gravityEnabled"`
	AccelX          float64 `yaml:"accel_x" json:"accelX"`
	AccelY          float64 `yaml:"accel_y" json:"accelY"`
	AccelEnabled    bool    `yaml:"accel_enabled" json:"accelEnabled"`
	InvertForces    bool    `yaml:"invert_forces" json:"invertForces"`
	Friction        float64 `yaml:"friction" json:"friction"`
	FrictionEnabled bool    `yaml:"friction_enabled" json:"frictionEnabled"`
	Elasticity      float64 `yaml:"elasticity" json:"elasticity"`
	BounceEnabled   bool    `yaml:"bounce_enabled" json:"bounceEnabled"`
	MaxSpeed        float64 `yaml:"max_speed" json:"maxSpeed"`

	DragVelocityMultiplier float64 `yaml:"drag_velocity_multiplier" json:"dragVelocityMultiplier"`
	// Advisory only; release velocity is bounded by MaxSpeed.
	DragVelocityMax float64 `yaml:"drag_velocity_max" json:"dragVelocityMax"`

	SleepStillFrames    int     `yaml:"sleep_still_frames" json:"sleepStillFrames"`
	SleepSpeedThreshold float64 `yaml:"sleep_speed_threshold" json:"sleepSpeedThreshold"`

	CollideWindows             bool `yaml:"collide_windows" json:"collideWindows"`
	IgnoreMaximizedWindows     bool `yaml:"ignore_maximized_windows" json:"ignoreMaximizedWindows"`
	IgnoreFullscreenWindows    bool `yaml:"ignore_fullscreen_windows" json:"ignoreFullscreenWindows"`
	IgnoreBorderlessFullscreen bool `yaml:"ignore_borderless_fullscreen" json:"ignoreBorderlessFullscreen"`

	ScreenPadding int `yaml:"screen_padding" json:"screenPadding"`
	// Hz, 0 = ask the display
	RefreshRate float64 `yaml:"refresh_rate" json:"refreshRate"`
}

// ScannerConfig tunes the circuit breaker around native desktop queries
type ScannerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests" json:"maxRequests"`
	Interval            time.Duration `yaml:"interval" json:"interval"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	MaxConsecutiveFails uint32        `yaml:"max_consecutive_fails" json:"maxConsecutiveFails"`
}

// EngineConfig converts the physics settings into engine parameters
func (p PhysicsConfig) EngineConfig() physics.Config {
	return physics.Config{
		Gravity:         p.Gravity,
		AccelX:          p.AccelX,
		AccelY:          p.AccelY,
		Friction:        p.Friction,
		Elasticity:      p.Elasticity,
		MaxSpeed:        p.MaxSpeed,
		GravityEnabled:  p.GravityEnabled,
		AccelEnabled:    p.AccelEnabled,
		InvertForces:    p.InvertForces,
		FrictionEnabled: p.FrictionEnabled,
		BounceEnabled:   p.BounceEnabled,
	}
}

// ObstaclePolicy returns the window exclusion flags
func (p PhysicsConfig) ObstaclePolicy() desktop.ObstaclePolicy {
	return desktop.ObstaclePolicy{
		IgnoreMaximized:            p.IgnoreMaximizedWindows,
		IgnoreFullscreen:           p.IgnoreFullscreenWindows,
		IgnoreBorderlessFullscreen: p.IgnoreBorderlessFullscreen,
	}
}

// BreakerSettings converts the scanner settings, filling zero fields from
// the desktop defaults.
func (s ScannerConfig) BreakerSettings() desktop.BreakerSettings {
	out := desktop.DefaultBreakerSettings()
	if s.MaxRequests > 0 {
		out.MaxRequests = s.MaxRequests
	}
	if s.Interval > 0 {
		out.Interval = s.Interval
	}
	if s.Timeout > 0 {
		out.Timeout = s.Timeout
	}
	if s.MaxConsecutiveFails > 0 {
		out.MaxConsecutiveFails = s.MaxConsecutiveFails
	}
	return out
}

// LoadConfig loads a configuration from a YAML (.yaml, .yml) or JSON (.json)
// file. Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, config)
	case "json":
		err = json.Unmarshal(data, config)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration, choosing the encoding from the extension
func SaveConfig(config *Config, path string) error {
	if config == nil {
		return errors.New("config is nil")
	}

	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(config)
	case "json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

// DefaultConfig returns the default pet configuration
func DefaultConfig() *Config {
	breaker := desktop.DefaultBreakerSettings()
	return &Config{
		General: GeneralConfig{
			AlwaysOnTop:    true,
			PhysicsEnabled: false,
		},
		Physics: PhysicsConfig{
			Gravity:                    300,
			GravityEnabled:             true,
			Friction:                   0.98,
			FrictionEnabled:            true,
			Elasticity:                 0.6,
			BounceEnabled:              true,
			MaxSpeed:                   2000,
			DragVelocityMultiplier:     1.2,
			DragVelocityMax:            2500,
			SleepStillFrames:           10,
			SleepSpeedThreshold:        30,
			CollideWindows:             true,
			IgnoreMaximizedWindows:     true,
			IgnoreFullscreenWindows:    true,
			IgnoreBorderlessFullscreen: true,
		},
		Scanner: ScannerConfig{
			MaxRequests:         breaker.MaxRequests,
			Interval:            breaker.Interval,
			Timeout:             breaker.Timeout,
			MaxConsecutiveFails: breaker.MaxConsecutiveFails,
		},
	}
}
