// pkg/status/status_test.go
package status

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/event"
	"github.com/opd-ai/go-elastic/pkg/i18n"
	"github.com/opd-ai/go-elastic/pkg/physics"
)

type fixedSource struct {
	snap *engine.Snapshot
}

func (f fixedSource) Snapshot() *engine.Snapshot { return f.snap }

func newTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.New("en")
	if err != nil {
		t.Fatalf("i18n.New() error = %v", err)
	}
	return tr
}

func lifecycle(kind event.Type) event.Event {
	return event.NewLifecycleEvent(kind, nil)
}

func TestCounter_Notify(t *testing.T) {
	c := NewCounter(i18n.AbsWallCollision, event.WallCollision)

	for i := 0; i < 3; i++ {
		c.Notify(lifecycle(event.WallCollision))
	}
	c.Notify(lifecycle(event.PairCollision))
	c.Notify(lifecycle(event.TickCompleted))

	if got := c.Count(); got != 3 {
		t.Errorf("Count() = %d, expected 3", got)
	}

	c.Notify(lifecycle(event.SimulationReset))
	if got := c.Count(); got != 0 {
		t.Errorf("Count() after reset = %d, expected 0", got)
	}

	c.Notify(lifecycle(event.WallCollision))
	c.Notify(lifecycle(event.StateLoaded))
	if got := c.Count(); got != 0 {
		t.Errorf("Count() after load = %d, expected 0", got)
	}
}

func TestRateCounter_Window(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		samples  []int
		expected float64
	}{
		{name: "empty_window", size: 5, samples: nil, expected: 0},
		{name: "partial_window", size: 5, samples: []int{5, 5}, expected: 2},
		{name: "full_window", size: 4, samples: []int{1, 2, 3, 4}, expected: 2.5},
		{name: "oldest_dropped", size: 2, samples: []int{10, 2, 4}, expected: 3},
		{name: "size_clamped", size: 0, samples: []int{7}, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRateCounter(i18n.WallCollision, event.WallCollision, tt.size)
			for _, n := range tt.samples {
				for i := 0; i < n; i++ {
					r.Notify(lifecycle(event.WallCollision))
				}
				r.Sample()
			}
			if got := r.Rate(); got != tt.expected {
				t.Errorf("Rate() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRateCounter_Flush(t *testing.T) {
	r := NewRateCounter(i18n.ObjectCollision, event.PairCollision, 3)
	r.Notify(lifecycle(event.PairCollision))
	r.Sample()
	r.Notify(lifecycle(event.PairCollision))

	r.Notify(lifecycle(event.SimulationReset))
	r.Sample()

	if got := r.Rate(); got != 0 {
		t.Errorf("Rate() after flush = %v, expected 0", got)
	}
}

func TestTrackers(t *testing.T) {
	tr := newTranslator(t)
	snap := &engine.Snapshot{
		Tick:          1234,
		Bound:         physics.NewBound(800, 600),
		Momentum:      physics.Vector2D{X: 10, Y: -0.5},
		KineticEnergy: 12.5,
		AverageSpeed:  1.23456,
		Bodies:        make([]engine.BodyState, 3),
	}

	tests := []struct {
		name     string
		element  Element
		expected string
	}{
		{name: "avg_speed", element: AverageSpeed(), expected: "1.235"},
		{name: "width", element: Width(), expected: "800"},
		{name: "height", element: Height(), expected: "600"},
		{name: "momentum", element: Momentum(), expected: "(10; -0.5)"},
		{name: "kinetic_energy", element: KineticEnergy(), expected: "12.5"},
		{name: "tick", element: TickCount(), expected: "1,234"},
		{name: "bodies", element: BodyCount(), expected: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.element.Value(snap, tr); got != tt.expected {
				t.Errorf("Value() = %q, expected %q", got, tt.expected)
			}
			if got := tt.element.Value(nil, tr); got != "" {
				t.Errorf("Value(nil) = %q, expected empty", got)
			}
		})
	}
}

func TestNew_KnownNames(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			el, err := New(name, DefaultRateWindow)
			if err != nil {
				t.Fatalf("New(%q) error = %v", name, err)
			}
			if el.Key() == "" {
				t.Error("element has no label key")
			}
		})
	}

	if _, err := New("unknown", 1); err == nil {
		t.Error("expected error for unknown element")
	}
	if _, err := Build([]string{AvgSpeedName, "bogus"}, 1); err == nil {
		t.Error("expected Build to fail on unknown element")
	}
}

func TestBoard_AttachAndLines(t *testing.T) {
	tr := newTranslator(t)
	bus := event.NewEventBus()
	elements, err := Build([]string{WallCounterName, ObjectCounterName, WidthName}, DefaultRateWindow)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	board := NewBoard(fixedSource{snap: &engine.Snapshot{Bound: physics.NewBound(500, 400)}}, elements...)
	board.Attach(bus)
	board.Attach(bus)

	bus.Publish(lifecycle(event.WallCollision))
	bus.Publish(lifecycle(event.WallCollision))
	bus.Publish(lifecycle(event.PairCollision))

	expected := []string{
		"Wall collisions: 2",
		"Object collisions: 1",
		"Field width: 500",
	}
	got := board.Strings(tr)
	if len(got) != len(expected) {
		t.Fatalf("Strings() = %v", got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("line %d = %q, expected %q", i, got[i], expected[i])
		}
	}

	board.Detach()
	bus.Publish(lifecycle(event.WallCollision))
	if l := board.Lines(tr)[0]; l.Value != "2" {
		t.Errorf("detached board still counts, got %q", l.Value)
	}

	tr.SetLanguage("fr")
	if l := board.Lines(tr)[2]; l.Label != "Largeur du champ" {
		t.Errorf("French label = %q", l.Label)
	}
}

func TestBoard_Sample(t *testing.T) {
	rate := NewRateCounter(i18n.WallCollision, event.WallCollision, 2)
	board := NewBoard(nil, rate, NewCounter(i18n.AbsWallCollision, event.WallCollision))

	for i := 0; i < 4; i++ {
		rate.Notify(lifecycle(event.WallCollision))
	}
	board.Sample()

	if got := rate.Rate(); got != 2 {
		t.Errorf("Rate() = %v, expected 2", got)
	}
}

type recordingLauncher struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (l *recordingLauncher) StartGoroutine(ctx context.Context, name string, fn func(context.Context)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.names = append(l.names, name)
	go fn(ctx)
	return nil
}

func TestBoard_StartSampling(t *testing.T) {
	rate := NewRateCounter(i18n.WallCollision, event.WallCollision, 1)
	board := NewBoard(nil, rate)
	launcher := &recordingLauncher{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := board.StartSampling(ctx, launcher, 0); err == nil {
		t.Error("expected error for zero interval")
	}

	rate.Notify(lifecycle(event.WallCollision))
	if err := board.StartSampling(ctx, launcher, 5*time.Millisecond); err != nil {
		t.Fatalf("StartSampling() error = %v", err)
	}

	var seen float64
	deadline := time.Now().Add(time.Second)
	for seen == 0 && time.Now().Before(deadline) {
		seen = rate.Rate()
		time.Sleep(time.Millisecond)
	}
	if seen != 1 {
		t.Errorf("sampler did not run, Rate() = %v", seen)
	}
	launcher.mu.Lock()
	if len(launcher.names) != 1 || launcher.names[0] != "status-sampler" {
		t.Errorf("launcher names = %v", launcher.names)
	}
	launcher.err = errors.New("limit reached")
	launcher.mu.Unlock()

	if err := board.StartSampling(ctx, launcher, time.Millisecond); err == nil {
		t.Error("expected launcher error")
	}
}
