package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmelin-systems/elevator-core/internal/domain"
)

func TestInitConfig_DefaultValues(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()

	cfg, err := InitConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "DEBUG", cfg.LogLevel) // development default bumps INFO to DEBUG
	assert.Equal(t, "localhost:15657", cfg.DriverAddress)
	assert.Equal(t, 4, cfg.NumFloors)
	assert.Equal(t, 8, cfg.QueueCapacity)
	assert.Equal(t, 3*time.Second, cfg.DoorHoldOpen)
	assert.Equal(t, 25*time.Millisecond, cfg.PollPeriod)
	assert.Equal(t, 6660, cfg.StatusPort)
	assert.True(t, cfg.MetricsEnabled)
	assert.True(t, cfg.StatusWSEnabled)
}

func TestInitConfig_EnvironmentVariables(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()

	envVars := map[string]string{
		"ENV":            "production",
		"DRIVER_ADDRESS": "10.0.0.5:15657",
		"NUM_FLOORS":     "8",
		"QUEUE_CAPACITY": "16",
		"STATUS_PORT":    "9090",
	}
	for key, value := range envVars {
		require.NoError(t, os.Setenv(key, value))
	}

	cfg, err := InitConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "WARN", cfg.LogLevel) // overridden by production defaults
	assert.Equal(t, "10.0.0.5:15657", cfg.DriverAddress)
	assert.Equal(t, 8, cfg.NumFloors)
	assert.Equal(t, 16, cfg.QueueCapacity)
	assert.Equal(t, 9090, cfg.StatusPort)
}

func TestEnvironmentDefaults_Development(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("ENV", "development"))

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.DoorHoldOpen)
	assert.True(t, cfg.MetricsEnabled)
}

func TestEnvironmentDefaults_Testing(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("ENV", "testing"))

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.DoorHoldOpen)
	assert.Equal(t, 2*time.Millisecond, cfg.PollPeriod)
	assert.False(t, cfg.MetricsEnabled)
	assert.False(t, cfg.StatusWSEnabled)
}

func TestEnvironmentDefaults_Production(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("ENV", "production"))

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.DoorHoldOpen) // unchanged from default
}

func TestConfigValidation_InvalidNumFloors(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{"zero floors", "0", "num floors must be positive"},
		{"negative floors", "-1", "num floors must be positive"},
		{"too many floors", "1000", "num floors exceeds system maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearEnvVars()
			defer cleanup()
			require.NoError(t, os.Setenv("NUM_FLOORS", tt.value))

			cfg, err := InitConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)

			var domainErr *domain.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domain.ErrTypeValidation, domainErr.Type)
		})
	}
}

func TestConfigValidation_InvalidQueueCapacity(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("QUEUE_CAPACITY", "0"))

	cfg, err := InitConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "queue capacity must be positive")
}

func TestConfigValidation_InvalidDoorHoldOpen(t *testing.T) {
	cleanup := clearEnvVars()
	defer cleanup()
	require.NoError(t, os.Setenv("DOOR_HOLD_OPEN", "0s"))

	cfg, err := InitConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "door hold-open duration must be positive")
}

func TestConfigValidation_InvalidStatusPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"zero", "0"},
		{"negative", "-1"},
		{"too high", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearEnvVars()
			defer cleanup()
			require.NoError(t, os.Setenv("STATUS_PORT", tt.value))

			cfg, err := InitConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "status port must be between 1 and 65535")
		})
	}
}

func TestConfig_EnvironmentMethods(t *testing.T) {
	tests := []struct {
		environment   string
		isProduction  bool
		isDevelopment bool
		isTesting     bool
	}{
		{"production", true, false, false},
		{"prod", true, false, false},
		{"development", false, true, false},
		{"dev", false, true, false},
		{"testing", false, false, true},
		{"test", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.isProduction, cfg.IsProduction())
			assert.Equal(t, tt.isDevelopment, cfg.IsDevelopment())
			assert.Equal(t, tt.isTesting, cfg.IsTesting())
		})
	}
}

func clearEnvVars() func() {
	envVars := []string{
		"ENV", "LOG_LEVEL", "DRIVER_ADDRESS", "NUM_FLOORS", "QUEUE_CAPACITY",
		"DOOR_HOLD_OPEN", "POLL_PERIOD", "STATUS_PORT", "METRICS_ENABLED",
		"STATUS_WS_ENABLED",
	}

	original := make(map[string]string)
	for _, v := range envVars {
		original[v] = os.Getenv(v)
		os.Unsetenv(v)
	}

	return func() {
		for _, v := range envVars {
			if val, ok := original[v]; ok && val != "" {
				os.Setenv(v, val)
			} else {
				os.Unsetenv(v)
			}
		}
	}
}
