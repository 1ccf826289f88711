// pkg/status/tracker.go
package status

import (
	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/i18n"
)

// Tracker reports a value read from the current snapshot.
type Tracker struct {
	key   i18n.Key
	value func(snap *engine.Snapshot, tr *i18n.Translator) string
}

// Key implements Element.
func (t *Tracker) Key() i18n.Key { return t.key }

// Value implements Element. A nil snapshot renders as an empty value.
func (t *Tracker) Value(snap *engine.Snapshot, tr *i18n.Translator) string {
	if snap == nil {
		return ""
	}
	return t.value(snap, tr)
}

// AverageSpeed tracks the mean body speed, rounded to three decimals.
func AverageSpeed() *Tracker {
	return &Tracker{key: i18n.AvgSpeed, value: func(s *engine.Snapshot, tr *i18n.Translator) string {
		return tr.Decimal(round3(s.AverageSpeed), 3)
	}}
}

// Width tracks the field width.
func Width() *Tracker {
	return &Tracker{key: i18n.SimWidth, value: func(s *engine.Snapshot, tr *i18n.Translator) string {
		return tr.Decimal(s.Bound.Width(), 0)
	}}
}

// Height tracks the field height.
func Height() *Tracker {
	return &Tracker{key: i18n.SimHeight, value: func(s *engine.Snapshot, tr *i18n.Translator) string {
		return tr.Decimal(s.Bound.Height(), 0)
	}}
}

// Momentum tracks the total momentum vector.
func Momentum() *Tracker {
	return &Tracker{key: i18n.Momentum, value: func(s *engine.Snapshot, tr *i18n.Translator) string {
		return "(" + tr.Decimal(round3(s.Momentum.X), 3) + "; " + tr.Decimal(round3(s.Momentum.Y), 3) + ")"
	}}
}

// KineticEnergy tracks the total kinetic energy.
func KineticEnergy() *Tracker {
	return &Tracker{key: i18n.KineticEnergy, value: func(s *engine.Snapshot, tr *i18n.Translator) string {
		return tr.Decimal(round3(s.KineticEnergy), 3)
	}}
}

// TickCount tracks the number of completed ticks.
func TickCount() *Tracker {
	return &Tracker{key: i18n.TickCount, value: func(s *engine.Snapshot, tr *i18n.Translator) string {
		return tr.Integer(int64(s.Tick))
	}}
}

// BodyCount tracks the number of bodies.
func BodyCount() *Tracker {
	return &Tracker{key: i18n.BodyCount, value: func(s *engine.Snapshot, tr *i18n.Translator) string {
		return tr.Integer(int64(len(s.Bodies)))
	}}
}
