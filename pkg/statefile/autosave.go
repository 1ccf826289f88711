package statefile

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/logging"
)

// Autosaver periodically saves a simulation. Writes go through a circuit
// breaker so a failing disk is retried only after a cooldown.
type Autosaver struct {
	sim      *engine.Simulation
	path     string
	interval time.Duration
	breaker  *gobreaker.CircuitBreaker
	logger   *logging.Logger
	write    func(path string, st *State) error
	saves    atomic.Uint64
}

// NewAutosaver creates an autosaver from the autosave configuration.
func NewAutosaver(sim *engine.Simulation, cfg config.AutosaveConfig, logger *logging.Logger) (*Autosaver, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("autosave path is required")
	}
	if cfg.IntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid autosave interval: %ds", cfg.IntervalSeconds)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("autosave")

	maxFails := cfg.MaxConsecutiveFails
	if maxFails <= 0 {
		maxFails = 1
	}

	settings := gobreaker.Settings{
		Name:        "autosave",
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.CooldownSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Autosaver{
		sim:      sim,
		path:     cfg.Path,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		logger:   logger,
		write: func(path string, st *State) error {
			return st.WriteFile(path)
		},
	}, nil
}

// SaveNow writes one autosave. While the breaker is open it fails fast
// with gobreaker.ErrOpenState.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.write(a.path, Capture(a.sim))
	})
	if err != nil {
		a.logger.LogWithContext(ctx, slog.LevelWarn, "autosave failed",
			"path", a.path,
			"error", err.Error(),
			"state", a.breaker.State().String(),
		)
		return fmt.Errorf("autosave: %w", err)
	}
	a.saves.Add(1)
	a.logger.Debug(ctx, "autosaved", "path", a.path)
	return nil
}

// Run saves at the configured interval until ctx is done.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = a.SaveNow(ctx)
		}
	}
}

// Start runs the autosaver on a goroutine started by launcher.
func (a *Autosaver) Start(ctx context.Context, launcher engine.Launcher) error {
	return launcher.StartGoroutine(ctx, "autosave", a.Run)
}

// State returns the circuit breaker state.
func (a *Autosaver) State() gobreaker.State {
	return a.breaker.State()
}

// Saves returns the number of successful autosaves.
func (a *Autosaver) Saves() uint64 {
	return a.saves.Load()
}
