// Package config loads the control-core's environment-variable
// configuration (spec §6, §4.7). Grounded on
// internal/infra/config/config.go's caarlos0/env struct-tag style and
// InitConfig/applyEnvironmentDefaults/validateConfiguration shape, trimmed
// from the teacher's multi-elevator HTTP-server knob set to the single
// cabin's own knobs.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"

	"github.com/harmelin-systems/elevator-core/internal/constants"
	"github.com/harmelin-systems/elevator-core/internal/domain"
)

// Config is the control-core's full runtime configuration.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	DriverAddress string        `env:"DRIVER_ADDRESS" envDefault:"localhost:15657"`
	NumFloors     int           `env:"NUM_FLOORS" envDefault:"4"`
	QueueCapacity int           `env:"QUEUE_CAPACITY" envDefault:"8"`
	DoorHoldOpen  time.Duration `env:"DOOR_HOLD_OPEN" envDefault:"3s"`
	PollPeriod    time.Duration `env:"POLL_PERIOD" envDefault:"25ms"`

	StatusPort      int  `env:"STATUS_PORT" envDefault:"6660"`
	MetricsEnabled  bool `env:"METRICS_ENABLED" envDefault:"true"`
	StatusWSEnabled bool `env:"STATUS_WS_ENABLED" envDefault:"true"`
}

// InitConfig parses environment variables into a Config, applies
// environment-specific defaults, and validates the result.
func InitConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	applyEnvironmentDefaults(&cfg)

	if err := validateConfiguration(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func applyEnvironmentDefaults(cfg *Config) {
	switch cfg.Environment {
	case "development", "dev":
		applyDevelopmentDefaults(cfg)
	case "testing", "test":
		applyTestingDefaults(cfg)
	case "production", "prod":
		applyProductionDefaults(cfg)
	default:
		// Keep whatever was parsed for unknown environments.
	}
}

// applyDevelopmentDefaults enables debug logging; every other knob stays at
// its parsed default.
func applyDevelopmentDefaults(cfg *Config) {
	if cfg.LogLevel == "INFO" {
		cfg.LogLevel = "DEBUG"
	}
}

// applyTestingDefaults collapses door/poll timing to milliseconds so
// scheduler and door-controller tests run fast, and disables the status
// side-car's non-essential surfaces.
func applyTestingDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"
	cfg.DoorHoldOpen = 50 * time.Millisecond
	cfg.PollPeriod = 2 * time.Millisecond
	cfg.MetricsEnabled = false
	cfg.StatusWSEnabled = false
}

// applyProductionDefaults tightens logging for a live cabin.
func applyProductionDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"
}

func validateConfiguration(cfg *Config) error {
	if cfg.NumFloors <= 0 {
		return domain.NewValidationError("num floors must be positive", nil).
			WithContext("num_floors", cfg.NumFloors)
	}

	if cfg.NumFloors > constants.MaxAllowedFloor-constants.MinAllowedFloor {
		return domain.NewValidationError("num floors exceeds system maximum", nil).
			WithContext("num_floors", cfg.NumFloors).
			WithContext("system_maximum", constants.MaxAllowedFloor-constants.MinAllowedFloor)
	}

	if cfg.QueueCapacity <= 0 {
		return domain.NewValidationError("queue capacity must be positive", nil).
			WithContext("queue_capacity", cfg.QueueCapacity)
	}

	if cfg.DoorHoldOpen <= 0 {
		return domain.NewValidationError("door hold-open duration must be positive", nil).
			WithContext("door_hold_open", cfg.DoorHoldOpen)
	}

	if cfg.PollPeriod <= 0 {
		return domain.NewValidationError("poll period must be positive", nil).
			WithContext("poll_period", cfg.PollPeriod)
	}

	if cfg.StatusPort <= 0 || cfg.StatusPort > 65535 {
		return domain.NewValidationError("status port must be between 1 and 65535", nil).
			WithContext("status_port", cfg.StatusPort)
	}

	return nil
}

// IsProduction reports whether cfg targets a production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment reports whether cfg targets a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsTesting reports whether cfg targets a testing environment.
func (c *Config) IsTesting() bool {
	return c.Environment == "testing" || c.Environment == "test"
}
