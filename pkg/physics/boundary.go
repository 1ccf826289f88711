// pkg/physics/boundary.go
package physics

// Bound is the rectangular field, centred on the origin.
type Bound struct {
	HalfWidth  float64 `json:"halfWidth" yaml:"halfWidth"`
	HalfHeight float64 `json:"halfHeight" yaml:"halfHeight"`
}

// NewBound creates a bound from full field dimensions.
func NewBound(width, height float64) Bound {
	return Bound{HalfWidth: width / 2, HalfHeight: height / 2}
}

// Width returns the full field width.
func (b Bound) Width() float64 { return b.HalfWidth * 2 }

// Height returns the full field height.
func (b Bound) Height() float64 { return b.HalfHeight * 2 }

// Axis names the velocity component a wall hit reflected.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// WallHit describes one reflected velocity component.
type WallHit struct {
	Body *Body
	Axis Axis
}

// ResolveBoundary reflects the velocity components that carry b further
// outside the bound. A body already heading back inside is left alone, and
// the position is never corrected. Both axes can fire in one call.
func ResolveBoundary(b *Body, bound Bound) []WallHit {
	var hits []WallHit

	v := &b.Velocity
	if (b.Position.Y+b.Radius > bound.HalfHeight && v.Y > 0) ||
		(b.Position.Y-b.Radius < -bound.HalfHeight && v.Y < 0) {
		v.Y *= -1
		hits = append(hits, WallHit{Body: b, Axis: AxisY})
	}
	if (b.Position.X+b.Radius > bound.HalfWidth && v.X > 0) ||
		(b.Position.X-b.Radius < -bound.HalfWidth && v.X < 0) {
		v.X *= -1
		hits = append(hits, WallHit{Body: b, Axis: AxisX})
	}

	return hits
}
