// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SimulationConfig contains configuration for a simulation session and its front-ends
type SimulationConfig struct {
	Field       FieldConfig    `json:"field"`
	TickDelayMS int            `json:"tickDelayMs"`
	RateWindow  int            `json:"rateWindowSeconds"`
	Locale      string         `json:"locale"`
	Scenario    ScenarioConfig `json:"scenario"`
	Autosave    AutosaveConfig `json:"autosave"`
	Window      WindowConfig   `json:"window"`
	Audio       AudioConfig    `json:"audio"`
	Headless    HeadlessConfig `json:"headless"`
	Limits      LimitsConfig   `json:"limits"`
}

// FieldConfig is the size of the rectangular field in world units
type FieldConfig struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScenarioConfig selects the starting bodies. Path wins over Name when both are set.
type ScenarioConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// AutosaveConfig controls periodic state saving
type AutosaveConfig struct {
	Enabled             bool   `json:"enabled"`
	Path                string `json:"path"`
	IntervalSeconds     int    `json:"intervalSeconds"`
	MaxConsecutiveFails int    `json:"maxConsecutiveFails"`
	CooldownSeconds     int    `json:"cooldownSeconds"`
}

// WindowConfig contains desktop window settings
type WindowConfig struct {
	Title      string `json:"title"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Fullscreen bool   `json:"fullscreen"`
	ShowHUD    bool   `json:"showHud"`
}

// AudioConfig contains collision sound settings
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sampleRate"`
	Volume     float64 `json:"volume"`
}

// HeadlessConfig contains settings for the headless runner
type HeadlessConfig struct {
	Ticks                int `json:"ticks"`
	HealthPort           int `json:"healthPort"`
	StatsIntervalSeconds int `json:"statsIntervalSeconds"`
}

// LimitsConfig bounds resource usage
type LimitsConfig struct {
	MaxBodies     int   `json:"maxBodies"`
	MaxGoroutines int   `json:"maxGoroutines"`
	MaxMemoryMB   int64 `json:"maxMemoryMB"`
}

// TickDelay returns the delay between ticks
func (c *SimulationConfig) TickDelay() time.Duration {
	return time.Duration(c.TickDelayMS) * time.Millisecond
}

// AutosaveInterval returns the delay between autosaves
func (c *SimulationConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.Autosave.IntervalSeconds) * time.Second
}

// Validate checks the configuration for values a session cannot run with
func (c *SimulationConfig) Validate() error {
	switch {
	case c.Field.Width <= 0:
		return &ValidationError{Field: "Field.Width", Value: c.Field.Width, Message: "must be positive"}
	case c.Field.Height <= 0:
		return &ValidationError{Field: "Field.Height", Value: c.Field.Height, Message: "must be positive"}
	case c.TickDelayMS <= 0:
		return &ValidationError{Field: "TickDelayMS", Value: c.TickDelayMS, Message: "must be positive"}
	case c.RateWindow <= 0:
		return &ValidationError{Field: "RateWindow", Value: c.RateWindow, Message: "must be positive"}
	case c.Limits.MaxBodies <= 0:
		return &ValidationError{Field: "Limits.MaxBodies", Value: c.Limits.MaxBodies, Message: "must be positive"}
	case c.Autosave.Enabled && c.Autosave.Path == "":
		return &ValidationError{Field: "Autosave.Path", Value: c.Autosave.Path, Message: "required when autosave is enabled"}
	case c.Autosave.Enabled && c.Autosave.IntervalSeconds <= 0:
		return &ValidationError{Field: "Autosave.IntervalSeconds", Value: c.Autosave.IntervalSeconds, Message: "must be positive"}
	case c.Audio.Volume < 0 || c.Audio.Volume > 1:
		return &ValidationError{Field: "Audio.Volume", Value: c.Audio.Volume, Message: "must be between 0 and 1"}
	}
	return nil
}

// LoadConfig loads a configuration from a file
func LoadConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *SimulationConfig, path string) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default simulation configuration
func DefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		Field: FieldConfig{
			Width:  800,
			Height: 600,
		},
		TickDelayMS: 10,
		RateWindow:  10,
		Locale:      "en",
		Scenario: ScenarioConfig{
			Name: "pool",
		},
		Autosave: AutosaveConfig{
			Enabled:             false,
			Path:                "elastic-autosave.yaml",
			IntervalSeconds:     30,
			MaxConsecutiveFails: 3,
			CooldownSeconds:     60,
		},
		Window: WindowConfig{
			Title:   "Elastic Collisions",
			Width:   800,
			Height:  600,
			ShowHUD: true,
		},
		Audio: AudioConfig{
			Enabled:    false,
			SampleRate: 44100,
			Volume:     0.3,
		},
		Headless: HeadlessConfig{
			Ticks:                1000,
			HealthPort:           0,
			StatsIntervalSeconds: 1,
		},
		Limits: LimitsConfig{
			MaxBodies:     1000,
			MaxGoroutines: 64,
			MaxMemoryMB:   512,
		},
	}
}
