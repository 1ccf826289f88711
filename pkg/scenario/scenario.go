// Package scenario describes initial simulation setups: the built-in presets
// and YAML scenario files.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/physics"
	"github.com/opd-ai/go-elastic/pkg/status"
	"github.com/opd-ai/go-elastic/pkg/validation"
)

// Body kinds
const (
	KindBall = "ball"
	KindGas  = "gas"
)

// ErrInvalidScenario is returned for scenarios that fail validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// BodySpec describes one body. Radius and Mass default from Kind when zero.
// Save files use the same schema.
type BodySpec struct {
	Kind   string  `yaml:"kind,omitempty"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
	Radius float64 `yaml:"radius,omitempty"`
	Mass   float64 `yaml:"mass,omitempty"`
	Color  string  `yaml:"color,omitempty"`
}

// Scenario is a complete initial setup.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Width       float64    `yaml:"width"`
	Height      float64    `yaml:"height"`
	RateWindow  int        `yaml:"rateWindow,omitempty"`
	Status      []string   `yaml:"status,omitempty"`
	Bodies      []BodySpec `yaml:"bodies"`
}

func (b BodySpec) radius() float64 {
	if b.Radius != 0 {
		return b.Radius
	}
	if b.Kind == KindGas {
		return physics.GasParticleRadius
	}
	return physics.BallRadius
}

func (b BodySpec) mass() float64 {
	if b.Mass != 0 {
		return b.Mass
	}
	if b.Kind == KindGas {
		return physics.GasParticleMass
	}
	return 1
}

// Validate checks the field, the status list and every body. maxBodies of
// zero or less disables the count check.
func (s *Scenario) Validate(maxBodies int) error {
	if _, err := validation.ValidateScenarioName(s.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := validation.ValidateField(s.Width, s.Height); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := validation.ValidateBodyCount(len(s.Bodies), maxBodies); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if s.RateWindow < 0 {
		return fmt.Errorf("%w: negative rate window %d", ErrInvalidScenario, s.RateWindow)
	}
	for _, name := range s.Status {
		if _, err := status.New(name, 1); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
		}
	}

	return ValidateBodies(s.Bodies)
}

// ValidateBodies checks every body spec and rejects coincident centres.
func ValidateBodies(specs []BodySpec) error {
	seen := make(map[physics.Vector2D]int, len(specs))
	for i, b := range specs {
		if b.Kind != "" && b.Kind != KindBall && b.Kind != KindGas {
			return fmt.Errorf("%w: body %d: unknown kind %q", ErrInvalidScenario, i, b.Kind)
		}
		if err := validation.ValidateBody(b.X, b.Y, b.VX, b.VY, b.radius(), b.mass()); err != nil {
			return fmt.Errorf("%w: body %d: %v", ErrInvalidScenario, i, err)
		}
		if _, err := ParseColor(b.Color); err != nil {
			return fmt.Errorf("%w: body %d: %v", ErrInvalidScenario, i, err)
		}
		pos := physics.Vector2D{X: b.X, Y: b.Y}
		if j, dup := seen[pos]; dup {
			return fmt.Errorf("%w: bodies %d and %d share centre %v", ErrInvalidScenario, j, i, pos)
		}
		seen[pos] = i
	}
	return nil
}

// Build creates fresh bodies for the scenario.
func (s *Scenario) Build() ([]*physics.Body, error) {
	return BuildBodies(s.Bodies)
}

// BuildBodies creates a body for every spec.
func BuildBodies(specs []BodySpec) ([]*physics.Body, error) {
	bodies := make([]*physics.Body, 0, len(specs))
	for i, b := range specs {
		fill, err := ParseColor(b.Color)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		body, err := physics.NewBody(
			physics.Vector2D{X: b.X, Y: b.Y},
			physics.Vector2D{X: b.VX, Y: b.VY},
			b.radius(), b.mass(), fill,
		)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

// StatusElements builds the scenario's status elements. A scenario without
// a status list shows every element.
func (s *Scenario) StatusElements() ([]status.Element, error) {
	names := s.Status
	if len(names) == 0 {
		names = status.Names()
	}
	window := s.RateWindow
	if window == 0 {
		window = status.DefaultRateWindow
	}
	return status.Build(names, window)
}

// Parse decodes a YAML scenario. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return &s, nil
}

// Load reads and validates a YAML scenario file.
func Load(path string, maxBodies int) (*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if err := validation.ValidateFileSize(info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(maxBodies); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the scenario as YAML.
func (s *Scenario) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}
	return nil
}

// Resolve returns the scenario selected by the configuration: the file at
// Scenario.Path when set, the named preset otherwise.
func Resolve(cfg *config.SimulationConfig, rng *rand.Rand) (*Scenario, error) {
	var (
		s   *Scenario
		err error
	)
	if cfg.Scenario.Path != "" {
		s, err = Load(cfg.Scenario.Path, cfg.Limits.MaxBodies)
	} else {
		s, err = Preset(cfg.Scenario.Name, rng)
		if err == nil {
			err = s.Validate(cfg.Limits.MaxBodies)
		}
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
