// pkg/status/board.go
package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/event"
	"github.com/opd-ai/go-elastic/pkg/i18n"
)

// Source provides the snapshot trackers read from. *engine.Simulation
// satisfies it.
type Source interface {
	Snapshot() *engine.Snapshot
}

// Line is one rendered status entry.
type Line struct {
	Key   i18n.Key `json:"key"`
	Label string   `json:"label"`
	Value string   `json:"value"`
}

// String renders the line as "label: value".
func (l Line) String() string {
	return l.Label + ": " + l.Value
}

// notifyTypes are the events forwarded to Notifiable elements.
var notifyTypes = []event.Type{
	event.PairCollision,
	event.WallCollision,
	event.SimulationReset,
	event.StateLoaded,
}

// Board is an ordered set of status elements.
type Board struct {
	source   Source
	elements []Element

	mu     sync.Mutex
	cancel func()
}

// NewBoard creates a board reading trackers from source.
func NewBoard(source Source, elements ...Element) *Board {
	return &Board{source: source, elements: elements}
}

// Elements returns the board elements in display order.
func (b *Board) Elements() []Element {
	return b.elements
}

// Attach subscribes every Notifiable element to the bus. Attaching again
// first drops the previous subscriptions.
func (b *Board) Attach(bus *event.Bus) {
	b.Detach()

	var cancels []func()
	for _, el := range b.elements {
		if n, ok := el.(Notifiable); ok {
			cancels = append(cancels, bus.SubscribeAll(n.Notify, notifyTypes...))
		}
	}

	b.mu.Lock()
	b.cancel = func() {
		for _, c := range cancels {
			c()
		}
	}
	b.mu.Unlock()
}

// Detach removes the subscriptions made by Attach.
func (b *Board) Detach() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Sample samples every Sampler element once.
func (b *Board) Sample() {
	for _, el := range b.elements {
		if s, ok := el.(Sampler); ok {
			s.Sample()
		}
	}
}

// Run samples the board at the given interval until ctx is done.
func (b *Board) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Sample()
		}
	}
}

// StartSampling runs the sampler on a goroutine started by launcher.
func (b *Board) StartSampling(ctx context.Context, launcher engine.Launcher, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid sample interval %v", interval)
	}
	return launcher.StartGoroutine(ctx, "status-sampler", func(ctx context.Context) {
		b.Run(ctx, interval)
	})
}

// Lines renders every element against one snapshot of the source.
func (b *Board) Lines(tr *i18n.Translator) []Line {
	var snap *engine.Snapshot
	if b.source != nil {
		snap = b.source.Snapshot()
	}

	lines := make([]Line, len(b.elements))
	for i, el := range b.elements {
		lines[i] = Line{
			Key:   el.Key(),
			Label: tr.T(el.Key()),
			Value: el.Value(snap, tr),
		}
	}
	return lines
}

// Strings renders the board as "label: value" lines.
func (b *Board) Strings(tr *i18n.Translator) []string {
	lines := b.Lines(tr)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}
