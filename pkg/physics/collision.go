// pkg/physics/collision.go
package physics

import "errors"

var (
	// ErrSameBody is returned when a body is resolved against itself.
	ErrSameBody = errors.New("cannot resolve a body against itself")
	// ErrCoincidentCenters is returned when two overlapping bodies share a
	// centre, which leaves the collision normal undefined.
	ErrCoincidentCenters = errors.New("bodies have coincident centers")
)

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Collider returns the body's collision shape.
func (b *Body) Collider() Circle {
	return Circle{Center: b.Position, Radius: b.Radius}
}

// Collides reports whether two circles touch or overlap.
func (c Circle) Collides(other Circle) bool {
	return c.Center.Distance(other.Center) <= c.Radius+other.Radius
}

// Contact describes a resolved pair collision.
type Contact struct {
	A, B *Body
	// Normal is the unit vector from A's centre to B's centre.
	Normal Vector2D
	// Penetration is how far the circles overlap along the normal.
	Penetration float64
	// Normal speeds before and after the exchange.
	NormalA, NormalB           float64
	NormalAAfter, NormalBAfter float64
}

// ResolvePair detects and resolves an elastic collision between a and b.
//
// It returns nil when the bodies do not overlap or are already separating.
// Otherwise both velocities are rewritten in place and the contact is
// returned; the caller reports exactly one collision per returned contact.
func ResolvePair(a, b *Body) (*Contact, error) {
	if a == b {
		return nil, ErrSameBody
	}

	if !a.Collider().Collides(b.Collider()) {
		return nil, nil
	}

	delta := b.Position.Sub(a.Position)
	distance := delta.Length()
	if distance == 0 {
		return nil, ErrCoincidentCenters
	}

	normal := delta.Unit()
	tangent := normal.Normal()

	na := normal.Dot(a.Velocity)
	nb := normal.Dot(b.Velocity)
	ta := tangent.Dot(a.Velocity)
	tb := tangent.Dot(b.Velocity)

	// already moving apart
	if na < 0 && nb > 0 {
		return nil, nil
	}

	ma, mb := a.Mass, b.Mass
	naAfter := (ma*na + mb*(2*nb-na)) / (ma + mb)
	nbAfter := (ma*(2*na-nb) + mb*nb) / (ma + mb)

	va := normal.Scale(naAfter).Add(tangent.Scale(ta))
	vb := normal.Scale(nbAfter).Add(tangent.Scale(tb))

	a.Velocity.X = va.X
	a.Velocity.Y = va.Y
	b.Velocity.X = vb.X
	b.Velocity.Y = vb.Y

	return &Contact{
		A:            a,
		B:            b,
		Normal:       normal,
		Penetration:  a.Radius + b.Radius - distance,
		NormalA:      na,
		NormalB:      nb,
		NormalAAfter: naAfter,
		NormalBAfter: nbAfter,
	}, nil
}
