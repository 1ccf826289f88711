// pkg/engine/simulation_test.go
package engine

import (
	"context"
	"errors"
	"image/color"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/event"
	"github.com/opd-ai/go-elastic/pkg/physics"
)

// recorder collects every published event.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(t event.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.GetType() == t {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func newBody(t *testing.T, x, y, vx, vy, radius, mass float64) *physics.Body {
	t.Helper()
	b, err := physics.NewBody(physics.Vector2D{X: x, Y: y}, physics.Vector2D{X: vx, Y: vy}, radius, mass, color.RGBA{A: 255})
	if err != nil {
		t.Fatalf("NewBody() error = %v", err)
	}
	return b
}

func newTestSimulation(t *testing.T, width, height float64) (*Simulation, *recorder) {
	t.Helper()
	rec := &recorder{}
	sim, err := NewSimulation(Options{
		TickDelay: time.Millisecond,
		Bound:     FixedBound(physics.NewBound(width, height)),
		Sink:      rec,
		MaxBodies: 100,
	})
	if err != nil {
		t.Fatalf("NewSimulation() error = %v", err)
	}
	return sim, rec
}

func TestNewSimulation_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"valid", Options{TickDelay: time.Millisecond, Bound: FixedBound{HalfWidth: 1, HalfHeight: 1}}, false},
		{"zero_delay", Options{Bound: FixedBound{HalfWidth: 1, HalfHeight: 1}}, true},
		{"missing_bound", Options{TickDelay: time.Millisecond}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimulation(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSimulation() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := OptionsFromConfig(cfg)

	if opts.TickDelay != 10*time.Millisecond {
		t.Errorf("TickDelay = %v, expected 10ms", opts.TickDelay)
	}
	if b := opts.Bound.Bound(); b.HalfWidth != 400 || b.HalfHeight != 300 {
		t.Errorf("Bound = %+v, expected 400x300 half extents", b)
	}
	if opts.MaxBodies != cfg.Limits.MaxBodies {
		t.Errorf("MaxBodies = %d, expected %d", opts.MaxBodies, cfg.Limits.MaxBodies)
	}
}

func TestSimulation_StepMovesBodies(t *testing.T) {
	sim, rec := newTestSimulation(t, 1000, 1000)
	b := newBody(t, -10, 0, 3, 4, 20, 1)
	if err := sim.SetBodies([]*physics.Body{b}); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}

	if err := sim.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	if b.Position != (physics.Vector2D{X: -7, Y: 4}) {
		t.Errorf("Position = %v, expected (-7,4)", b.Position)
	}
	if sim.Tick() != 1 {
		t.Errorf("Tick() = %d, expected 1", sim.Tick())
	}
	if rec.count(event.TickCompleted) != 1 {
		t.Errorf("expected one TickCompleted event, got %d", rec.count(event.TickCompleted))
	}
}

func TestSimulation_PairResolvedOncePerTick(t *testing.T) {
	sim, rec := newTestSimulation(t, 1000, 1000)
	// a reaches (-10,0) after the first advance
	a := newBody(t, -13, -4, 3, 4, 1, 1)
	b := newBody(t, -8.5, 0, 0, 0, 1, 1)
	if err := sim.SetBodies([]*physics.Body{a, b}); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}
	rec.reset()

	if err := sim.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	if n := rec.count(event.PairCollision); n != 1 {
		t.Errorf("got %d PairCollision events, expected exactly 1", n)
	}
	if math.Abs(a.Velocity.X) > 1e-9 || math.Abs(a.Velocity.Y-4) > 1e-9 {
		t.Errorf("a.Velocity = %v, expected (0,4)", a.Velocity)
	}
	if math.Abs(b.Velocity.X-3) > 1e-9 || math.Abs(b.Velocity.Y) > 1e-9 {
		t.Errorf("b.Velocity = %v, expected (3,0)", b.Velocity)
	}

	snap := sim.Snapshot()
	if snap.Collisions != 1 {
		t.Errorf("Snapshot().Collisions = %d, expected 1", snap.Collisions)
	}
}

func TestSimulation_CradleTransfersOnePairPerTick(t *testing.T) {
	sim, rec := newTestSimulation(t, 4000, 1000)

	balls := make([]*physics.Body, 5)
	for i := range balls {
		balls[i] = newBody(t, float64(i)*42, 0, 0, 0, physics.BallRadius, 1)
	}
	balls[0].Velocity = physics.Vector2D{X: 5}
	if err := sim.SetBodies(balls); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}

	for tick := 1; tick <= 4; tick++ {
		rec.reset()
		if err := sim.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if n := rec.count(event.PairCollision); n != 1 {
			t.Fatalf("tick %d: got %d collisions, expected 1", tick, n)
		}
		for i, b := range balls {
			expected := 0.0
			if i == tick {
				expected = 5
			}
			if math.Abs(b.Velocity.X-expected) > 1e-9 {
				t.Errorf("tick %d: ball %d velocity = %v, expected %v", tick, i, b.Velocity.X, expected)
			}
		}
	}
}

func TestSimulation_WallReflection(t *testing.T) {
	sim, rec := newTestSimulation(t, 100, 100)
	b := newBody(t, 25, 0, 3, 0, 20, 1)
	if err := sim.SetBodies([]*physics.Body{b}); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}
	rec.reset()

	// 28 + 20 < 50, then 31 + 20 > 50
	for i := 0; i < 2; i++ {
		if err := sim.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	if n := rec.count(event.WallCollision); n != 1 {
		t.Errorf("got %d wall events, expected 1", n)
	}
	if b.Velocity.X != -3 {
		t.Errorf("Velocity.X = %v, expected -3", b.Velocity.X)
	}

	if err := sim.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if n := rec.count(event.WallCollision); n != 1 {
		t.Errorf("body heading inward was reflected again (%d events)", n)
	}
}

func TestSimulation_ConservesMomentumWithoutWalls(t *testing.T) {
	sim, _ := newTestSimulation(t, 100000, 100000)
	bodies := []*physics.Body{
		newBody(t, 0, 0, 2, 1, 20, 3),
		newBody(t, 60, 10, -1, 0, 20, 1),
		newBody(t, 30, 50, 0, -2, 10, 2),
		newBody(t, -40, 20, 1.5, 0, 15, 5),
	}
	if err := sim.SetBodies(bodies); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}

	before := sim.Snapshot()
	for i := 0; i < 200; i++ {
		if err := sim.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}
	after := sim.Snapshot()

	if math.Abs(after.Momentum.X-before.Momentum.X) > 1e-6 || math.Abs(after.Momentum.Y-before.Momentum.Y) > 1e-6 {
		t.Errorf("momentum drifted from %v to %v", before.Momentum, after.Momentum)
	}
	if math.Abs(after.KineticEnergy-before.KineticEnergy) > 1e-6 {
		t.Errorf("kinetic energy drifted from %v to %v", before.KineticEnergy, after.KineticEnergy)
	}
}

func TestSimulation_StepReportsCoincidentCenters(t *testing.T) {
	sim, _ := newTestSimulation(t, 1000, 1000)
	a := newBody(t, 0, 0, 1, 0, 10, 1)
	b := newBody(t, 0, 0, 1, 0, 10, 1)
	c := newBody(t, 300, 0, 0, 0, 10, 1)
	if err := sim.SetBodies([]*physics.Body{a, b, c}); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}

	err := sim.Step()
	if !errors.Is(err, physics.ErrCoincidentCenters) {
		t.Fatalf("Step() error = %v, expected ErrCoincidentCenters", err)
	}
	if !errors.Is(sim.LastError(), physics.ErrCoincidentCenters) {
		t.Errorf("LastError() = %v", sim.LastError())
	}
	if sim.Tick() != 1 {
		t.Errorf("tick should still complete, got %d", sim.Tick())
	}
}

func TestSimulation_SetBodiesValidation(t *testing.T) {
	sim, _ := newTestSimulation(t, 1000, 1000)
	b := newBody(t, 0, 0, 0, 0, 5, 1)

	if err := sim.SetBodies([]*physics.Body{b, b}); !errors.Is(err, ErrDuplicateBody) {
		t.Errorf("SetBodies(duplicate) error = %v, expected ErrDuplicateBody", err)
	}
	if err := sim.SetBodies([]*physics.Body{nil}); err == nil {
		t.Error("SetBodies(nil body) expected error")
	}

	many := make([]*physics.Body, 101)
	for i := range many {
		many[i] = newBody(t, float64(i)*20, 0, 0, 0, 5, 1)
	}
	if err := sim.SetBodies(many); !errors.Is(err, ErrTooManyBodies) {
		t.Errorf("SetBodies(101) error = %v, expected ErrTooManyBodies", err)
	}
}

func TestSimulation_ResetRestoresStartSet(t *testing.T) {
	sim, rec := newTestSimulation(t, 1000, 1000)
	b := newBody(t, 10, 20, 3, -1, 20, 2)
	if err := sim.SetBodies([]*physics.Body{b}); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		_ = sim.Step()
	}
	if err := sim.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	snap := sim.Snapshot()
	if snap.Tick != 0 {
		t.Errorf("Tick = %d after reset, expected 0", snap.Tick)
	}
	if len(snap.Bodies) != 1 {
		t.Fatalf("expected 1 body, got %d", len(snap.Bodies))
	}
	got := snap.Bodies[0]
	if got.Position != (physics.Vector2D{X: 10, Y: 20}) || got.Velocity != (physics.Vector2D{X: 3, Y: -1}) {
		t.Errorf("reset body = %+v", got)
	}
	if got.ID != b.ID {
		t.Errorf("reset changed ID from %d to %d", b.ID, got.ID)
	}
	if rec.count(event.SimulationReset) != 1 {
		t.Error("expected a SimulationReset event")
	}

	// a second run from the reset state must not touch the original pointer
	_ = sim.Step()
	if b.Position != (physics.Vector2D{X: 25, Y: 15}) {
		t.Errorf("original body moved after reset: %v", b.Position)
	}
}

func TestSimulation_TickDelay(t *testing.T) {
	sim, _ := newTestSimulation(t, 100, 100)

	if err := sim.SetTickDelay(0); !errors.Is(err, ErrInvalidTickDelay) {
		t.Errorf("SetTickDelay(0) error = %v", err)
	}
	if err := sim.SetTickDelay(20 * time.Millisecond); err != nil {
		t.Fatalf("SetTickDelay() error = %v", err)
	}
	if sim.TickDelay() != 20*time.Millisecond {
		t.Errorf("TickDelay() = %v", sim.TickDelay())
	}

	if err := sim.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer sim.Pause()

	if err := sim.SetTickDelay(5 * time.Millisecond); !errors.Is(err, ErrRunning) {
		t.Errorf("SetTickDelay() while running error = %v, expected ErrRunning", err)
	}
}

func TestSimulation_StartPause(t *testing.T) {
	sim, rec := newTestSimulation(t, 1000, 1000)
	if err := sim.SetBodies([]*physics.Body{newBody(t, 0, 0, 1, 0, 5, 1)}); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}

	if err := sim.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sim.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, expected ErrRunning", err)
	}
	if !sim.Running() {
		t.Error("Running() = false after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for sim.Tick() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if sim.Tick() < 3 {
		t.Fatalf("loop did not tick, tick = %d", sim.Tick())
	}

	sim.Pause()
	sim.Pause()
	if sim.Running() {
		t.Error("Running() = true after Pause")
	}

	time.Sleep(10 * time.Millisecond)
	paused := sim.Tick()
	time.Sleep(20 * time.Millisecond)
	if sim.Tick() != paused {
		t.Errorf("ticks advanced while paused: %d -> %d", paused, sim.Tick())
	}

	if rec.count(event.SimulationStarted) != 1 || rec.count(event.SimulationPaused) != 1 {
		t.Errorf("lifecycle events: started %d paused %d",
			rec.count(event.SimulationStarted), rec.count(event.SimulationPaused))
	}
}

func TestSimulation_ToggleAndCancelledContext(t *testing.T) {
	sim, _ := newTestSimulation(t, 1000, 1000)

	if err := sim.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !sim.Running() {
		t.Fatal("Toggle() did not start")
	}
	if err := sim.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if sim.Running() {
		t.Fatal("Toggle() did not pause")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sim.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() with cancelled context = %v", err)
	}
}

type failingLauncher struct{}

func (failingLauncher) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	return errors.New("limit reached")
}

func TestSimulation_StartLauncherFailure(t *testing.T) {
	sim, err := NewSimulation(Options{
		TickDelay: time.Millisecond,
		Bound:     FixedBound{HalfWidth: 10, HalfHeight: 10},
		Launcher:  failingLauncher{},
	})
	if err != nil {
		t.Fatalf("NewSimulation() error = %v", err)
	}

	if err := sim.Start(context.Background()); err == nil {
		t.Fatal("Start() expected launcher error")
	}
	if sim.Running() {
		t.Error("Running() = true after failed Start")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSimulation_CancelledParentPauses(t *testing.T) {
	sim, rec := newTestSimulation(t, 1000, 1000)
	if err := sim.SetBodies([]*physics.Body{newBody(t, 0, 0, 1, 0, 5, 1)}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, func() bool { return sim.Tick() >= 2 })
	cancel()
	waitFor(t, func() bool { return !sim.Running() })

	if rec.count(event.SimulationPaused) != 1 {
		t.Errorf("paused events = %d, expected 1", rec.count(event.SimulationPaused))
	}
	if err := sim.SetTickDelay(2 * time.Millisecond); err != nil {
		t.Errorf("SetTickDelay() after the loop ended = %v", err)
	}
	if err := sim.Start(context.Background()); err != nil {
		t.Fatalf("Start() after the loop ended = %v", err)
	}
	ticks := sim.Tick()
	waitFor(t, func() bool { return sim.Tick() > ticks })
	sim.Pause()
}

// panicSink panics on the first tick event it sees.
type panicSink struct {
	recorder
	once sync.Once
}

func (p *panicSink) Publish(e event.Event) {
	if e.GetType() == event.TickCompleted {
		p.once.Do(func() { panic("subscriber failed") })
	}
	p.recorder.Publish(e)
}

// recoveringLauncher recovers panics like resource.Manager does.
type recoveringLauncher struct{}

func (recoveringLauncher) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	go func() {
		defer func() { _ = recover() }()
		fn(ctx)
	}()
	return nil
}

func TestSimulation_PanicInTickPauses(t *testing.T) {
	sink := &panicSink{}
	sim, err := NewSimulation(Options{
		TickDelay: time.Millisecond,
		Bound:     FixedBound(physics.NewBound(1000, 1000)),
		Sink:      sink,
		Launcher:  recoveringLauncher{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := sim.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return !sim.Running() })

	if err := sim.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() after a panic = %v", err)
	}
	waitFor(t, func() bool { return sim.Tick() >= 3 })
	sim.Pause()
}

// blockingSink holds the first tick event until release is closed.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSink) Publish(e event.Event) {
	if e.GetType() != event.TickCompleted {
		return
	}
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
}

func TestSimulation_PauseWaitsForTick(t *testing.T) {
	sink := &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
	sim, err := NewSimulation(Options{
		TickDelay: time.Millisecond,
		Bound:     FixedBound(physics.NewBound(1000, 1000)),
		Sink:      sink,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-sink.entered

	paused := make(chan struct{})
	go func() {
		sim.Pause()
		close(paused)
	}()

	select {
	case <-paused:
		t.Fatal("Pause() returned while a tick was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(sink.release)
	select {
	case <-paused:
	case <-time.After(2 * time.Second):
		t.Fatal("Pause() did not return after the tick finished")
	}

	ticks := sim.Tick()
	time.Sleep(10 * time.Millisecond)
	if sim.Tick() != ticks {
		t.Errorf("ticks advanced after Pause returned: %d -> %d", ticks, sim.Tick())
	}
}

func TestSimulation_BoundChangePublished(t *testing.T) {
	rec := &recorder{}
	width := 200.0
	sim, err := NewSimulation(Options{
		TickDelay: time.Millisecond,
		Bound:     BoundFunc(func() physics.Bound { return physics.NewBound(width, 100) }),
		Sink:      rec,
	})
	if err != nil {
		t.Fatalf("NewSimulation() error = %v", err)
	}

	_ = sim.Step()
	if rec.count(event.BoundChanged) != 0 {
		t.Error("unchanged bound published an event")
	}

	width = 300
	_ = sim.Step()
	if rec.count(event.BoundChanged) != 1 {
		t.Error("expected one BoundChanged event")
	}
	if sim.Bound().HalfWidth != 150 {
		t.Errorf("Bound().HalfWidth = %v, expected 150", sim.Bound().HalfWidth)
	}
}

func TestSimulation_SnapshotIsCopy(t *testing.T) {
	sim, _ := newTestSimulation(t, 1000, 1000)
	b := newBody(t, 0, 0, 3, 4, 5, 2)
	if err := sim.SetBodies([]*physics.Body{b}); err != nil {
		t.Fatalf("SetBodies() error = %v", err)
	}

	snap := sim.Snapshot()
	snap.Bodies[0].Position.X = 999

	if b.Position.X == 999 {
		t.Error("Snapshot shares state with live bodies")
	}
	if snap.AverageSpeed != 5 {
		t.Errorf("AverageSpeed = %v, expected 5", snap.AverageSpeed)
	}
	if snap.Momentum != (physics.Vector2D{X: 6, Y: 8}) {
		t.Errorf("Momentum = %v, expected (6,8)", snap.Momentum)
	}
	if !snap.Finite() {
		t.Error("Finite() = false for finite state")
	}
	if snap.Bodies[0].ID != b.ID {
		t.Errorf("snapshot body ID = %v, expected %v", snap.Bodies[0].ID, b.ID)
	}

	copies, err := sim.Bodies()
	if err != nil {
		t.Fatalf("Bodies() error = %v", err)
	}
	if copies[0] == b {
		t.Error("Bodies() returned the live pointer")
	}
}
