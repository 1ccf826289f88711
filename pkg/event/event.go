// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-elastic/pkg/physics"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	PairCollision     Type = "pair_collision"
	WallCollision     Type = "wall_collision"
	TickCompleted     Type = "tick_completed"
	SimulationStarted Type = "simulation_started"
	SimulationPaused  Type = "simulation_paused"
	SimulationReset   Type = "simulation_reset"
	StateLoaded       Type = "state_loaded"
	BoundChanged      Type = "bound_changed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// Sink receives events. Producers depend on Sink rather than on a concrete bus.
type Sink interface {
	Publish(Event)
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription is returned by Subscribe. Cancel removes the handler and is
// safe to call more than once.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	var once sync.Once
	return &Subscription{
		ID: id,
		Cancel: func() {
			once.Do(func() { b.unsubscribe(eventType, id) })
		},
	}
}

// SubscribeAll registers one handler for several event types. The returned
// function cancels every registration.
func (b *Bus) SubscribeAll(handler Handler, types ...Type) func() {
	subs := make([]*Subscription, 0, len(types))
	for _, t := range types {
		subs = append(subs, b.Subscribe(t, handler))
	}
	return func() {
		for _, s := range subs {
			s.Cancel()
		}
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			// copy so a concurrent Publish keeps its own slice intact
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, eventType)
			} else {
				b.handlers[eventType] = next
			}
			return
		}
	}
}

// Publish sends an event to all subscribed handlers. Handlers run on the
// caller's goroutine, in subscription order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs, ok := b.handlers[event.GetType()]
	b.mu.RUnlock()

	if !ok {
		return
	}

	for _, s := range subs {
		s.handler(event)
	}
}

// PairCollisionEvent reports one resolved collision between two bodies.
type PairCollisionEvent struct {
	BaseEvent
	Tick    uint64
	BodyA   physics.ID
	BodyB   physics.ID
	Normal  physics.Vector2D
	Impulse float64
}

// NewPairCollisionEvent creates an event from a resolved contact.
func NewPairCollisionEvent(source interface{}, tick uint64, c *physics.Contact) *PairCollisionEvent {
	return &PairCollisionEvent{
		BaseEvent: BaseEvent{
			EventType: PairCollision,
			Source:    source,
		},
		Tick:    tick,
		BodyA:   c.A.ID,
		BodyB:   c.B.ID,
		Normal:  c.Normal,
		Impulse: c.A.Mass * (c.NormalAAfter - c.NormalA),
	}
}

// WallCollisionEvent reports one reflected velocity component.
type WallCollisionEvent struct {
	BaseEvent
	Tick  uint64
	Body  physics.ID
	Axis  physics.Axis
	Speed float64
}

// NewWallCollisionEvent creates an event from a wall hit.
func NewWallCollisionEvent(source interface{}, tick uint64, hit physics.WallHit) *WallCollisionEvent {
	return &WallCollisionEvent{
		BaseEvent: BaseEvent{
			EventType: WallCollision,
			Source:    source,
		},
		Tick:  tick,
		Body:  hit.Body.ID,
		Axis:  hit.Axis,
		Speed: hit.Body.Speed(),
	}
}

// TickEvent is published once at the end of every tick.
type TickEvent struct {
	BaseEvent
	Tick       uint64
	Bodies     int
	Collisions int
	WallHits   int
}

// NewTickEvent creates a tick summary event.
func NewTickEvent(source interface{}, tick uint64, bodies, collisions, wallHits int) *TickEvent {
	return &TickEvent{
		BaseEvent: BaseEvent{
			EventType: TickCompleted,
			Source:    source,
		},
		Tick:       tick,
		Bodies:     bodies,
		Collisions: collisions,
		WallHits:   wallHits,
	}
}

// BoundEvent reports a change of field size.
type BoundEvent struct {
	BaseEvent
	Bound physics.Bound
}

// NewBoundEvent creates a bound change event.
func NewBoundEvent(source interface{}, bound physics.Bound) *BoundEvent {
	return &BoundEvent{
		BaseEvent: BaseEvent{
			EventType: BoundChanged,
			Source:    source,
		},
		Bound: bound,
	}
}

// NewLifecycleEvent creates a plain event for start, pause, reset and load.
func NewLifecycleEvent(eventType Type, source interface{}) *BaseEvent {
	return &BaseEvent{EventType: eventType, Source: source}
}
