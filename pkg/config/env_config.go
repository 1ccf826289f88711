// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names
const (
	EnvTickDelayMS      = "ELASTIC_TICK_DELAY_MS"
	EnvFieldWidth       = "ELASTIC_FIELD_WIDTH"
	EnvFieldHeight      = "ELASTIC_FIELD_HEIGHT"
	EnvLocale           = "ELASTIC_LOCALE"
	EnvScenario         = "ELASTIC_SCENARIO"
	EnvAutosavePath     = "ELASTIC_AUTOSAVE_PATH"
	EnvAutosaveInterval = "ELASTIC_AUTOSAVE_INTERVAL"
	EnvHealthPort       = "ELASTIC_HEALTH_PORT"
	EnvMaxBodies        = "ELASTIC_MAX_BODIES"
	EnvAudio            = "ELASTIC_AUDIO"
)

// ValidationError reports a configuration value that failed validation
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

// EnvironmentConfig holds settings read from ELASTIC_* environment variables.
// Unset variables keep their defaults.
type EnvironmentConfig struct {
	TickDelay        time.Duration
	FieldWidth       float64
	FieldHeight      float64
	Locale           string
	Scenario         string
	AutosavePath     string
	AutosaveInterval time.Duration
	HealthPort       int
	MaxBodies        int
	Audio            bool
}

// LoadConfigFromEnv reads and validates the environment configuration.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	defaults := DefaultConfig()
	config := &EnvironmentConfig{}
	var err error

	if config.TickDelay, err = getEnvDurationMS(EnvTickDelayMS, defaults.TickDelay()); err != nil {
		return nil, err
	}
	if config.FieldWidth, err = getEnvFloat(EnvFieldWidth, defaults.Field.Width); err != nil {
		return nil, err
	}
	if config.FieldHeight, err = getEnvFloat(EnvFieldHeight, defaults.Field.Height); err != nil {
		return nil, err
	}
	config.Locale = getEnvString(EnvLocale, defaults.Locale)
	config.Scenario = getEnvString(EnvScenario, defaults.Scenario.Name)
	config.AutosavePath = getEnvString(EnvAutosavePath, "")
	if config.AutosaveInterval, err = getEnvDuration(EnvAutosaveInterval, defaults.AutosaveInterval()); err != nil {
		return nil, err
	}
	if config.HealthPort, err = getEnvInt(EnvHealthPort, defaults.Headless.HealthPort); err != nil {
		return nil, err
	}
	if config.MaxBodies, err = getEnvInt(EnvMaxBodies, defaults.Limits.MaxBodies); err != nil {
		return nil, err
	}
	if config.Audio, err = getEnvBool(EnvAudio, defaults.Audio.Enabled); err != nil {
		return nil, err
	}

	if err := validateEnvironmentConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateEnvironmentConfig(config *EnvironmentConfig) error {
	if config.TickDelay <= 0 {
		return &ValidationError{Field: "TickDelay", Value: config.TickDelay, Message: "must be positive"}
	}
	if config.FieldWidth <= 0 {
		return &ValidationError{Field: "FieldWidth", Value: config.FieldWidth, Message: "must be positive"}
	}
	if config.FieldHeight <= 0 {
		return &ValidationError{Field: "FieldHeight", Value: config.FieldHeight, Message: "must be positive"}
	}
	if config.Locale == "" {
		return &ValidationError{Field: "Locale", Value: config.Locale, Message: "cannot be empty"}
	}
	if config.AutosaveInterval <= 0 {
		return &ValidationError{Field: "AutosaveInterval", Value: config.AutosaveInterval, Message: "must be positive"}
	}
	if config.HealthPort < 0 || config.HealthPort > 65535 {
		return &ValidationError{Field: "HealthPort", Value: config.HealthPort, Message: "must be between 0 and 65535"}
	}
	if config.MaxBodies <= 0 {
		return &ValidationError{Field: "MaxBodies", Value: config.MaxBodies, Message: "must be positive"}
	}
	return nil
}

// ApplyEnvironmentOverrides copies every set ELASTIC_* variable onto config.
func ApplyEnvironmentOverrides(config *SimulationConfig) error {
	env, err := LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}

	if isSet(EnvTickDelayMS) {
		config.TickDelayMS = int(env.TickDelay / time.Millisecond)
	}
	if isSet(EnvFieldWidth) {
		config.Field.Width = env.FieldWidth
	}
	if isSet(EnvFieldHeight) {
		config.Field.Height = env.FieldHeight
	}
	if isSet(EnvLocale) {
		config.Locale = env.Locale
	}
	if isSet(EnvScenario) {
		// a value with a YAML extension is a file, anything else a preset
		if strings.HasSuffix(env.Scenario, ".yaml") || strings.HasSuffix(env.Scenario, ".yml") {
			config.Scenario.Path = env.Scenario
		} else {
			config.Scenario.Name = env.Scenario
			config.Scenario.Path = ""
		}
	}
	if isSet(EnvAutosavePath) {
		config.Autosave.Path = env.AutosavePath
		config.Autosave.Enabled = env.AutosavePath != ""
	}
	if isSet(EnvAutosaveInterval) {
		config.Autosave.IntervalSeconds = int(env.AutosaveInterval / time.Second)
	}
	if isSet(EnvHealthPort) {
		config.Headless.HealthPort = env.HealthPort
	}
	if isSet(EnvMaxBodies) {
		config.Limits.MaxBodies = env.MaxBodies
	}
	if isSet(EnvAudio) {
		config.Audio.Enabled = env.Audio
	}

	return nil
}

func isSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func getEnvString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return parsed, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return parsed, nil
}

// getEnvDuration accepts Go duration syntax ("45s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return parsed, nil
}

func getEnvDurationMS(key string, defaultValue time.Duration) (time.Duration, error) {
	ms, err := getEnvInt(key, int(defaultValue/time.Millisecond))
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}
