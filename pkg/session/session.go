// Package session assembles a simulation with its event bus, status board,
// supervisor, autosaver and optional sounds from a configuration. The
// front-ends in cmd/ differ only in how they draw and read input.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opd-ai/go-elastic/pkg/audio"
	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/event"
	"github.com/opd-ai/go-elastic/pkg/health"
	"github.com/opd-ai/go-elastic/pkg/i18n"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/physics"
	"github.com/opd-ai/go-elastic/pkg/resource"
	"github.com/opd-ai/go-elastic/pkg/scenario"
	"github.com/opd-ai/go-elastic/pkg/statefile"
	"github.com/opd-ai/go-elastic/pkg/status"
)

// LoadConfig reads the configuration at path, falling back to the defaults
// when the file does not exist, and applies ELASTIC_* overrides.
func LoadConfig(ctx context.Context, path string, logger *logging.Logger) (*config.SimulationConfig, error) {
	var cfg *config.SimulationConfig
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "configuration file not found, using defaults", "config_path", path)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SelectScenario points the configuration at a scenario file when value has a
// YAML extension, or at a preset otherwise.
func SelectScenario(cfg *config.SimulationConfig, value string) {
	if value == "" {
		return
	}
	ext := strings.ToLower(filepath.Ext(value))
	if ext == ".yaml" || ext == ".yml" {
		cfg.Scenario.Path = value
		return
	}
	cfg.Scenario.Name = value
	cfg.Scenario.Path = ""
}

// Options customise a session.
type Options struct {
	Logger *logging.Logger
	// BoundFor replaces the fixed field bound, for front-ends whose field
	// follows the window. It receives the scenario's field size.
	BoundFor func(width, height float64) engine.BoundProvider
	// Rand seeds the gas presets. Nil picks a random seed.
	Rand *rand.Rand
}

// Session is one assembled simulation.
type Session struct {
	Config     *config.SimulationConfig
	Scenario   *scenario.Scenario
	Bus        *event.Bus
	Manager    *resource.Manager
	Simulation *engine.Simulation
	Board      *status.Board
	Translator *i18n.Translator
	Autosaver  *statefile.Autosaver
	Checker    *health.HealthChecker
	Sounds     *audio.Sounds

	logger      *logging.Logger
	detachAudio func()
}

// FieldSize returns the field size of the scenario, or the configured size
// when the scenario leaves it unset.
func FieldSize(cfg *config.SimulationConfig, sc *scenario.Scenario) (width, height float64) {
	width, height = cfg.Field.Width, cfg.Field.Height
	if sc != nil && sc.Width > 0 && sc.Height > 0 {
		width, height = sc.Width, sc.Height
	}
	return width, height
}

// New builds a paused session for the scenario the configuration selects.
func New(cfg *config.SimulationConfig, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	sc, err := scenario.Resolve(cfg, opts.Rand)
	if err != nil {
		return nil, logging.WrapError(err, "failed to load scenario")
	}
	bodies, err := sc.Build()
	if err != nil {
		return nil, err
	}

	bus := event.NewEventBus()
	manager := resource.NewManager(resource.LimitsFromConfig(cfg), logger)

	simOpts := engine.OptionsFromConfig(cfg)
	simOpts.Sink = bus
	simOpts.Logger = logger
	simOpts.Launcher = manager
	if opts.BoundFor != nil {
		simOpts.Bound = opts.BoundFor(FieldSize(cfg, sc))
	} else {
		simOpts.Bound = engine.FixedBound(physics.NewBound(FieldSize(cfg, sc)))
	}

	sim, err := engine.NewSimulation(simOpts)
	if err != nil {
		return nil, err
	}
	if err := sim.SetBodies(bodies); err != nil {
		return nil, err
	}

	window := cfg.RateWindow
	if sc.RateWindow > 0 {
		window = sc.RateWindow
	}
	names := sc.Status
	if len(names) == 0 {
		names = status.Names()
	}
	elements, err := status.Build(names, window)
	if err != nil {
		return nil, err
	}
	board := status.NewBoard(sim, elements...)
	board.Attach(bus)

	tr, err := i18n.New(cfg.Locale)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Config:     cfg,
		Scenario:   sc,
		Bus:        bus,
		Manager:    manager,
		Simulation: sim,
		Board:      board,
		Translator: tr,
		logger:     logger.WithComponent("session"),
	}
	s.Checker = health.NewHealthChecker(
		health.NewSimulationHealthCheck(sim),
		resource.NewHealthCheck(manager),
	)

	if cfg.Autosave.Enabled {
		s.Autosaver, err = statefile.NewAutosaver(sim, cfg.Autosave, logger)
		if err != nil {
			return nil, err
		}
		s.Checker.AddCheck(health.NewAutosaveHealthCheck(s.Autosaver))
	}

	return s, nil
}

// Start begins resource monitoring, rate sampling and autosaving. The
// simulation itself stays paused.
func (s *Session) Start(ctx context.Context) error {
	if err := s.Manager.Start(); err != nil {
		return err
	}
	if err := s.Board.StartSampling(ctx, s.Manager, time.Second); err != nil {
		return err
	}
	if s.Autosaver != nil {
		if err := s.Autosaver.Start(ctx, s.Manager); err != nil {
			return err
		}
	}
	s.logger.Info(ctx, "session started",
		"scenario", s.Scenario.Name,
		"bodies", len(s.Scenario.Bodies),
		"bound", s.Simulation.Bound(),
		"language", s.Translator.Language().String(),
	)
	return nil
}

// EnableAudio opens the speaker and plays collision sounds when audio is
// enabled in the configuration. A missing audio device is logged and
// otherwise ignored.
func (s *Session) EnableAudio(ctx context.Context) {
	if !s.Config.Audio.Enabled {
		return
	}
	sounds, err := audio.FromConfig(s.Config.Audio)
	if err == nil {
		err = sounds.Initialize()
	}
	if err != nil {
		s.logger.Warn(ctx, "audio disabled", "error", err.Error())
		return
	}
	s.Sounds = sounds
	s.detachAudio = sounds.Attach(s.Bus)
}

// Close pauses the simulation, writes a last autosave and stops every
// supervised goroutine.
func (s *Session) Close(ctx context.Context) error {
	s.Simulation.Pause()
	s.Board.Detach()
	if s.detachAudio != nil {
		s.detachAudio()
		s.Sounds.Close()
	}

	var errs []error
	if s.Autosaver != nil {
		if err := s.Autosaver.SaveNow(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.Manager.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
