// pkg/status/counter.go
package status

import (
	"sync"
	"sync/atomic"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/event"
	"github.com/opd-ai/go-elastic/pkg/i18n"
)

// resets reports whether e starts a new run of the simulation.
func resets(e event.Event) bool {
	t := e.GetType()
	return t == event.SimulationReset || t == event.StateLoaded
}

// Counter counts events of one type since the last reset.
type Counter struct {
	key   i18n.Key
	kind  event.Type
	count atomic.Uint64
}

// NewCounter creates a counter of events of the given type.
func NewCounter(key i18n.Key, kind event.Type) *Counter {
	return &Counter{key: key, kind: kind}
}

// Notify implements Notifiable.
func (c *Counter) Notify(e event.Event) {
	switch {
	case e.GetType() == c.kind:
		c.count.Add(1)
	case resets(e):
		c.count.Store(0)
	}
}

// Count returns the number of events seen.
func (c *Counter) Count() uint64 {
	return c.count.Load()
}

// Key implements Element.
func (c *Counter) Key() i18n.Key { return c.key }

// Value implements Element.
func (c *Counter) Value(_ *engine.Snapshot, tr *i18n.Translator) string {
	return tr.Integer(int64(c.Count()))
}

// RateCounter reports the average number of events per sample over a
// sliding window. Sample is expected once per second.
type RateCounter struct {
	key  i18n.Key
	kind event.Type

	current atomic.Uint64

	mu     sync.Mutex
	window []uint64
	next   int
}

// NewRateCounter creates a rate counter averaging over size samples.
func NewRateCounter(key i18n.Key, kind event.Type, size int) *RateCounter {
	if size < 1 {
		size = 1
	}
	return &RateCounter{
		key:    key,
		kind:   kind,
		window: make([]uint64, size),
	}
}

// Notify implements Notifiable.
func (r *RateCounter) Notify(e event.Event) {
	switch {
	case e.GetType() == r.kind:
		r.current.Add(1)
	case resets(e):
		r.Flush()
	}
}

// Sample pushes the count since the previous sample into the window,
// dropping the oldest entry.
func (r *RateCounter) Sample() {
	n := r.current.Swap(0)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.window[r.next] = n
	r.next = (r.next + 1) % len(r.window)
}

// Flush empties the window and the pending count.
func (r *RateCounter) Flush() {
	r.current.Store(0)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.window {
		r.window[i] = 0
	}
	r.next = 0
}

// Rate returns the window average.
func (r *RateCounter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sum uint64
	for _, n := range r.window {
		sum += n
	}
	return float64(sum) / float64(len(r.window))
}

// Key implements Element.
func (r *RateCounter) Key() i18n.Key { return r.key }

// Value implements Element.
func (r *RateCounter) Value(_ *engine.Snapshot, tr *i18n.Translator) string {
	return tr.Decimal(round3(r.Rate()), 3)
}
