// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvironmentConfig holds process-level settings read from DESKPET_* variables
type EnvironmentConfig struct {
	ConfigPath string
	LogFile    string
	HealthAddr string

	// Circuit Breaker Configuration
	CircuitBreakerMaxRequests         uint32
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails uint32

	// Health Configuration
	TickStaleAfter time.Duration
}

// ValidationError reports an invalid environment setting
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

// LoadConfigFromEnv reads and validates the process environment
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	config := &EnvironmentConfig{
		ConfigPath: getEnvOrDefault("DESKPET_CONFIG", ""),
		LogFile:    getEnvOrDefault("DESKPET_LOG_FILE", ""),
		HealthAddr: getEnvOrDefault("DESKPET_HEALTH_ADDR", ""),

		CircuitBreakerMaxRequests:         uint32(getEnvAsIntOrDefault("DESKPET_CB_MAX_REQUESTS", 1)),
		CircuitBreakerInterval:            getEnvAsDurationOrDefault("DESKPET_CB_INTERVAL", time.Minute),
		CircuitBreakerTimeout:             getEnvAsDurationOrDefault("DESKPET_CB_TIMEOUT", 5*time.Second),
		CircuitBreakerMaxConsecutiveFails: uint32(getEnvAsIntOrDefault("DESKPET_CB_MAX_FAILS", 5)),

		TickStaleAfter: getEnvAsDurationOrDefault("DESKPET_TICK_STALE_AFTER", 2*time.Second),
	}

	if err := validateEnvironmentConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateEnvironmentConfig(config *EnvironmentConfig) error {
	if config.CircuitBreakerMaxRequests < 1 || config.CircuitBreakerMaxRequests > 100 {
		return &ValidationError{"CircuitBreakerMaxRequests", config.CircuitBreakerMaxRequests, "must be between 1 and 100"}
	}
	if config.CircuitBreakerInterval < time.Second || config.CircuitBreakerInterval > time.Hour {
		return &ValidationError{"CircuitBreakerInterval", config.CircuitBreakerInterval, "must be between 1s and 1h"}
	}
	if config.CircuitBreakerTimeout < 100*time.Millisecond || config.CircuitBreakerTimeout > 10*time.Minute {
		return &ValidationError{"CircuitBreakerTimeout", config.CircuitBreakerTimeout, "must be between 100ms and 10m"}
	}
	if config.CircuitBreakerMaxConsecutiveFails < 1 || config.CircuitBreakerMaxConsecutiveFails > 1000 {
		return &ValidationError{"CircuitBreakerMaxConsecutiveFails", config.CircuitBreakerMaxConsecutiveFails, "must be between 1 and 1000"}
	}
	if config.TickStaleAfter < 100*time.Millisecond {
		return &ValidationError{"TickStaleAfter", config.TickStaleAfter, "must be at least 100ms"}
	}
	return nil
}

// ScannerConfig returns the breaker settings from the environment
func (e *EnvironmentConfig) ScannerConfig() ScannerConfig {
	return ScannerConfig{
		MaxRequests:         e.CircuitBreakerMaxRequests,
		Interval:            e.CircuitBreakerInterval,
		Timeout:             e.CircuitBreakerTimeout,
		MaxConsecutiveFails: e.CircuitBreakerMaxConsecutiveFails,
	}
}

// ApplyEnvironmentOverrides overwrites fields of config that have a DESKPET_*
// variable set. Unparseable values leave the field unchanged.
func ApplyEnvironmentOverrides(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	g := &config.General
	g.AlwaysOnTop = getEnvAsBoolOrDefault("DESKPET_ALWAYS_ON_TOP", g.AlwaysOnTop)
	g.PhysicsEnabled = getEnvAsBoolOrDefault("DESKPET_PHYSICS_ENABLED", g.PhysicsEnabled)
	g.Sound = getEnvAsBoolOrDefault("DESKPET_SOUND", g.Sound)

	p := &config.Physics
	p.Gravity = getEnvAsFloatOrDefault("DESKPET_GRAVITY", p.Gravity)
	p.GravityEnabled = getEnvAsBoolOrDefault("DESKPET_GRAVITY_ENABLED", p.GravityEnabled)
	p.AccelX = getEnvAsFloatOrDefault("DESKPET_ACCEL_X", p.AccelX)
	p.AccelY = getEnvAsFloatOrDefault("DESKPET_ACCEL_Y", p.AccelY)
	p.AccelEnabled = getEnvAsBoolOrDefault("DESKPET_ACCEL_ENABLED", p.AccelEnabled)
	p.InvertForces = getEnvAsBoolOrDefault("DESKPET_INVERT_FORCES", p.InvertForces)
	p.Friction = getEnvAsFloatOrDefault("DESKPET_FRICTION", p.Friction)
	p.Elasticity = getEnvAsFloatOrDefault("DESKPET_ELASTICITY", p.Elasticity)
	p.BounceEnabled = getEnvAsBoolOrDefault("DESKPET_BOUNCE_ENABLED", p.BounceEnabled)
	p.MaxSpeed = getEnvAsFloatOrDefault("DESKPET_MAX_SPEED", p.MaxSpeed)
	p.CollideWindows = getEnvAsBoolOrDefault("DESKPET_COLLIDE_WINDOWS", p.CollideWindows)
	p.ScreenPadding = getEnvAsIntOrDefault("DESKPET_SCREEN_PADDING", p.ScreenPadding)
	p.RefreshRate = getEnvAsFloatOrDefault("DESKPET_REFRESH_RATE", p.RefreshRate)

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
