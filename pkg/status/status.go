// Package status implements the statistics shown next to the simulation:
// collision counters, per-second rates and trackers derived from the state.
package status

import (
	"fmt"
	"math"
	"sort"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/event"
	"github.com/opd-ai/go-elastic/pkg/i18n"
)

// Notifiable is implemented by elements that react to simulation events.
type Notifiable interface {
	Notify(e event.Event)
}

// Sampler is implemented by elements that need a periodic sample.
type Sampler interface {
	Sample()
}

// Element is one line of the status board.
type Element interface {
	Key() i18n.Key
	Value(snap *engine.Snapshot, tr *i18n.Translator) string
}

// Element names used by scenarios.
const (
	ObjectCounterName = "object-counter"
	ObjectRateName    = "object-rate"
	WallCounterName   = "wall-counter"
	WallRateName      = "wall-rate"
	AvgSpeedName      = "avg-speed"
	WidthName         = "width"
	HeightName        = "height"
	MomentumName      = "momentum"
	KineticEnergyName = "kinetic-energy"
	TickName          = "tick"
	BodiesName        = "bodies"
)

// DefaultRateWindow is the sample window used by the scenario presets.
const DefaultRateWindow = 5

var factories = map[string]func(window int) Element{
	ObjectCounterName: func(int) Element { return NewCounter(i18n.AbsObjectCollision, event.PairCollision) },
	ObjectRateName:    func(w int) Element { return NewRateCounter(i18n.ObjectCollision, event.PairCollision, w) },
	WallCounterName:   func(int) Element { return NewCounter(i18n.AbsWallCollision, event.WallCollision) },
	WallRateName:      func(w int) Element { return NewRateCounter(i18n.WallCollision, event.WallCollision, w) },
	AvgSpeedName:      func(int) Element { return AverageSpeed() },
	WidthName:         func(int) Element { return Width() },
	HeightName:        func(int) Element { return Height() },
	MomentumName:      func(int) Element { return Momentum() },
	KineticEnergyName: func(int) Element { return KineticEnergy() },
	TickName:          func(int) Element { return TickCount() },
	BodiesName:        func(int) Element { return BodyCount() },
}

// Names returns every known element name in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the element with the given name. window is the sample count
// of rate counters and is ignored by other elements.
func New(name string, window int) (Element, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown status element %q", name)
	}
	return factory(window), nil
}

// Build creates the named elements in order.
func Build(names []string, window int) ([]Element, error) {
	elements := make([]Element, 0, len(names))
	for _, name := range names {
		el, err := New(name, window)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return elements, nil
}

// round3 rounds to three decimals.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
