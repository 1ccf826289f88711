// pkg/engine/state.go
package engine

import (
	"image/color"
	"time"

	"github.com/opd-ai/go-elastic/pkg/physics"
)

// Snapshot represents a copy of the session state at one tick
type Snapshot struct {
	Tick          uint64           `json:"tick"`
	Bound         physics.Bound    `json:"bound"`
	Running       bool             `json:"running"`
	TickDelay     time.Duration    `json:"tickDelay"`
	Collisions    uint64           `json:"collisions"`
	WallHits      uint64           `json:"wallHits"`
	Momentum      physics.Vector2D `json:"momentum"`
	KineticEnergy float64          `json:"kineticEnergy"`
	AverageSpeed  float64          `json:"averageSpeed"`
	Bodies        []BodyState      `json:"bodies"`
}

// BodyState represents a snapshot of a body's state
type BodyState struct {
	ID       physics.ID       `json:"id"`
	Position physics.Vector2D `json:"position"`
	Velocity physics.Vector2D `json:"velocity"`
	Radius   float64          `json:"radius"`
	Mass     float64          `json:"mass"`
	Color    color.RGBA       `json:"-"`
}

// Finite reports whether every position and velocity in the snapshot is finite.
func (s *Snapshot) Finite() bool {
	for _, b := range s.Bodies {
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return false
		}
	}
	return true
}
