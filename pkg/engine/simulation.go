// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/event"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/physics"
)

var (
	// ErrRunning is returned by operations that need the tick loop paused.
	ErrRunning = errors.New("simulation is running")
	// ErrInvalidTickDelay is returned for a non-positive tick delay.
	ErrInvalidTickDelay = errors.New("tick delay must be positive")
	// ErrTooManyBodies is returned when a body set exceeds the configured limit.
	ErrTooManyBodies = errors.New("too many bodies")
	// ErrDuplicateBody is returned when the same *Body appears twice in a set.
	ErrDuplicateBody = errors.New("body listed twice")
)

// BoundProvider supplies the field bound. It is read once at the start of every tick.
type BoundProvider interface {
	Bound() physics.Bound
}

// FixedBound is a BoundProvider that never changes.
type FixedBound physics.Bound

// Bound implements BoundProvider.
func (f FixedBound) Bound() physics.Bound { return physics.Bound(f) }

// BoundFunc adapts a function to BoundProvider.
type BoundFunc func() physics.Bound

// Bound implements BoundProvider.
func (f BoundFunc) Bound() physics.Bound { return f() }

// Launcher starts supervised goroutines. *resource.Manager satisfies it.
type Launcher interface {
	StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error
}

type goLauncher struct{}

func (goLauncher) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	go fn(ctx)
	return nil
}

type discardSink struct{}

func (discardSink) Publish(event.Event) {}

// Options configures a Simulation.
type Options struct {
	TickDelay time.Duration
	Bound     BoundProvider
	Sink      event.Sink
	Logger    *logging.Logger
	Launcher  Launcher
	MaxBodies int
}

// OptionsFromConfig builds Options from a loaded configuration.
func OptionsFromConfig(cfg *config.SimulationConfig) Options {
	return Options{
		TickDelay: cfg.TickDelay(),
		Bound:     FixedBound(physics.NewBound(cfg.Field.Width, cfg.Field.Height)),
		MaxBodies: cfg.Limits.MaxBodies,
	}
}

// Simulation is one session: the live bodies, the start set used by Reset
// and the tick loop. Every tick runs as a single critical section.
type Simulation struct {
	mu sync.RWMutex

	bodies  []*physics.Body
	initial []*physics.Body

	boundProvider BoundProvider
	bound         physics.Bound
	sink          event.Sink
	logger        *logging.Logger
	launcher      Launcher
	maxBodies     int

	tick       uint64
	tickDelay  time.Duration
	collisions uint64
	wallHits   uint64
	lastErr    error

	running bool
	loop    *tickLoop
}

// tickLoop is one run of the tick goroutine.
type tickLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSimulation creates an empty, paused session.
func NewSimulation(opts Options) (*Simulation, error) {
	if opts.TickDelay <= 0 {
		return nil, ErrInvalidTickDelay
	}
	if opts.Bound == nil {
		return nil, fmt.Errorf("bound provider is required")
	}
	if opts.Sink == nil {
		opts.Sink = discardSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Launcher == nil {
		opts.Launcher = goLauncher{}
	}

	return &Simulation{
		boundProvider: opts.Bound,
		bound:         opts.Bound.Bound(),
		sink:          opts.Sink,
		logger:        opts.Logger.WithComponent("engine"),
		launcher:      opts.Launcher,
		maxBodies:     opts.MaxBodies,
		tickDelay:     opts.TickDelay,
	}, nil
}

// SetBodies replaces the live bodies and the start set. The simulation keeps
// the given pointers; Reset restores deep copies taken here.
func (s *Simulation) SetBodies(bodies []*physics.Body) error {
	if err := s.checkBodies(bodies); err != nil {
		return err
	}

	initial, err := cloneBodies(bodies)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.bodies = append([]*physics.Body(nil), bodies...)
	s.initial = initial
	s.tick = 0
	s.collisions = 0
	s.wallHits = 0
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info(context.Background(), "bodies loaded", "count", len(bodies))
	s.sink.Publish(event.NewLifecycleEvent(event.StateLoaded, s))
	return nil
}

func (s *Simulation) checkBodies(bodies []*physics.Body) error {
	if s.maxBodies > 0 && len(bodies) > s.maxBodies {
		return fmt.Errorf("%w: %d > %d", ErrTooManyBodies, len(bodies), s.maxBodies)
	}
	seen := make(map[*physics.Body]bool, len(bodies))
	for i, b := range bodies {
		if b == nil {
			return fmt.Errorf("body %d is nil", i)
		}
		if seen[b] {
			return fmt.Errorf("%w: index %d", ErrDuplicateBody, i)
		}
		seen[b] = true
	}
	return nil
}

func cloneBodies(bodies []*physics.Body) ([]*physics.Body, error) {
	clones := make([]*physics.Body, len(bodies))
	for i, b := range bodies {
		clone := new(physics.Body)
		if err := copier.CopyWithOption(clone, b, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("failed to copy body %d: %w", b.ID, err)
		}
		clones[i] = clone
	}
	return clones, nil
}

// Step advances the simulation by one tick: every body moves by its velocity,
// each unordered pair is resolved once, then every body is checked against
// the bound. Events are published after the lock is released.
//
// Kernel errors do not stop the tick. The offending pair is skipped and all
// errors are returned joined.
func (s *Simulation) Step() error {
	s.mu.Lock()

	var pending []event.Event
	var errs []error

	bound := s.boundProvider.Bound()
	if bound != s.bound {
		s.bound = bound
		pending = append(pending, event.NewBoundEvent(s, bound))
	}

	for _, b := range s.bodies {
		b.Advance()
	}

	tick := s.tick + 1
	collisions, wallHits := 0, 0

	for i := 0; i < len(s.bodies); i++ {
		for j := i + 1; j < len(s.bodies); j++ {
			contact, err := physics.ResolvePair(s.bodies[i], s.bodies[j])
			if err != nil {
				errs = append(errs, logging.WrapError(err, "tick %d bodies %d/%d", tick, s.bodies[i].ID, s.bodies[j].ID))
				continue
			}
			if contact != nil {
				collisions++
				pending = append(pending, event.NewPairCollisionEvent(s, tick, contact))
			}
		}
	}

	for _, b := range s.bodies {
		for _, hit := range physics.ResolveBoundary(b, bound) {
			wallHits++
			pending = append(pending, event.NewWallCollisionEvent(s, tick, hit))
		}
	}

	s.tick = tick
	s.collisions += uint64(collisions)
	s.wallHits += uint64(wallHits)
	bodyCount := len(s.bodies)

	stepErr := errors.Join(errs...)
	if stepErr != nil {
		s.lastErr = stepErr
	}
	s.mu.Unlock()

	for _, e := range pending {
		s.sink.Publish(e)
	}
	s.sink.Publish(event.NewTickEvent(s, tick, bodyCount, collisions, wallHits))

	if stepErr != nil {
		s.logger.Error(context.Background(), "tick resolution failed", stepErr, "tick", tick)
	}
	return stepErr
}

// Run calls Step at the tick delay until ctx is cancelled. Errors from Step
// are logged and kept for LastError; they do not end the loop.
func (s *Simulation) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.TickDelay())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			_ = s.Step()
		}
	}
}

// Start launches the tick loop. It returns ErrRunning if a loop is already active.
// The loop also ends when ctx is cancelled or Step panics; the simulation is
// then paused.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	loop := &tickLoop{cancel: cancel, done: make(chan struct{})}
	s.running = true
	s.loop = loop
	s.mu.Unlock()

	err := s.launcher.StartGoroutine(runCtx, "tick-loop", func(ctx context.Context) {
		defer s.loopExited(loop)
		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn(ctx, "tick loop stopped", "reason", err.Error())
		}
	})
	if err != nil {
		cancel()
		close(loop.done)
		s.mu.Lock()
		if s.loop == loop {
			s.running = false
			s.loop = nil
		}
		s.mu.Unlock()
		return logging.WrapError(err, "failed to start tick loop")
	}

	s.logger.Info(ctx, "simulation started", "tick_delay", s.TickDelay().String())
	s.sink.Publish(event.NewLifecycleEvent(event.SimulationStarted, s))
	return nil
}

// loopExited clears the running state when loop ended without Pause.
func (s *Simulation) loopExited(loop *tickLoop) {
	defer close(loop.done)
	loop.cancel()

	s.mu.Lock()
	if s.loop != loop {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.loop = nil
	tick := s.tick
	s.mu.Unlock()

	s.logger.Info(context.Background(), "tick loop ended", "tick", tick)
	s.sink.Publish(event.NewLifecycleEvent(event.SimulationPaused, s))
}

// Pause stops the tick loop and waits for an in-flight tick to finish.
// Pausing a paused simulation does nothing. Pause must not be called from an
// event handler running on the tick loop.
func (s *Simulation) Pause() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	loop := s.loop
	s.running = false
	s.loop = nil
	s.mu.Unlock()

	loop.cancel()
	<-loop.done

	s.logger.Info(context.Background(), "simulation paused", "tick", s.Tick())
	s.sink.Publish(event.NewLifecycleEvent(event.SimulationPaused, s))
}

// Toggle starts a paused simulation or pauses a running one.
func (s *Simulation) Toggle(ctx context.Context) error {
	if s.Running() {
		s.Pause()
		return nil
	}
	return s.Start(ctx)
}

// Running reports whether the tick loop is active.
func (s *Simulation) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Reset restores the start set. It may run while the loop is active; the
// write lock keeps it from interleaving with a tick.
func (s *Simulation) Reset() error {
	s.mu.Lock()
	restored, err := cloneBodies(s.initial)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.bodies = restored
	s.tick = 0
	s.collisions = 0
	s.wallHits = 0
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info(context.Background(), "simulation reset", "bodies", len(restored))
	s.sink.Publish(event.NewLifecycleEvent(event.SimulationReset, s))
	return nil
}

// SetTickDelay changes the loop period. The loop must be paused.
func (s *Simulation) SetTickDelay(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidTickDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.tickDelay = d
	return nil
}

// TickDelay returns the loop period.
func (s *Simulation) TickDelay() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickDelay
}

// Tick returns the number of ticks since the last load or reset.
func (s *Simulation) Tick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Bound returns the bound used by the most recent tick.
func (s *Simulation) Bound() physics.Bound {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bound
}

// LastError returns the most recent kernel error, or nil.
func (s *Simulation) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Bodies returns deep copies of the live bodies.
func (s *Simulation) Bodies() ([]*physics.Body, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneBodies(s.bodies)
}

// Snapshot returns a consistent copy of the session state.
func (s *Simulation) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Tick:          s.tick,
		Bound:         s.bound,
		Running:       s.running,
		TickDelay:     s.tickDelay,
		Collisions:    s.collisions,
		WallHits:      s.wallHits,
		Momentum:      physics.MomentumSum(s.bodies...),
		KineticEnergy: physics.KineticEnergySum(s.bodies...),
		Bodies:        make([]BodyState, len(s.bodies)),
	}

	speed := 0.0
	for i, b := range s.bodies {
		snap.Bodies[i] = BodyState{
			ID:       b.ID,
			Position: b.Position,
			Velocity: b.Velocity,
			Radius:   b.Radius,
			Mass:     b.Mass,
			Color:    b.Color,
		}
		speed += b.Speed()
	}
	if len(s.bodies) > 0 {
		snap.AverageSpeed = speed / float64(len(s.bodies))
	}

	return snap
}
