// pkg/physics/body.go
package physics

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync/atomic"
)

// ID is a unique identifier for a body
type ID uint64

var lastID atomic.Uint64

// GenerateID returns a process-unique body ID.
func GenerateID() ID {
	return ID(lastID.Add(1))
}

// Standard body sizes.
const (
	BallRadius        = 20
	GasParticleRadius = 5
	GasParticleMass   = 1
)

// ErrInvalidBody is returned when a body would have a non-positive or
// non-finite radius or mass.
var ErrInvalidBody = errors.New("invalid body")

// Body is a circular point mass in the field.
// Radius and Mass are fixed after construction. Position and Velocity change
// every tick; the resolvers write the velocity components in place, so a body
// must always be handled through its pointer.
type Body struct {
	ID       ID
	Position Vector2D
	Velocity Vector2D
	Radius   float64
	Mass     float64
	Color    color.RGBA
}

// NewBody creates a body with a fresh ID.
func NewBody(position, velocity Vector2D, radius, mass float64, fill color.RGBA) (*Body, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidBody, radius)
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w: mass %v", ErrInvalidBody, mass)
	}
	return &Body{
		ID:       GenerateID(),
		Position: position,
		Velocity: velocity,
		Radius:   radius,
		Mass:     mass,
		Color:    fill,
	}, nil
}

// NewBall creates a billiard ball of the standard radius.
func NewBall(x, y, mass float64, velocity Vector2D, fill color.RGBA) (*Body, error) {
	return NewBody(Vector2D{X: x, Y: y}, velocity, BallRadius, mass, fill)
}

// NewGasParticle creates a small unit-mass particle.
func NewGasParticle(x, y float64, velocity Vector2D) (*Body, error) {
	return NewBody(Vector2D{X: x, Y: y}, velocity, GasParticleRadius, GasParticleMass, color.RGBA{A: 255})
}

// Advance moves the body by one tick of its velocity.
func (b *Body) Advance() {
	b.Position.X += b.Velocity.X
	b.Position.Y += b.Velocity.Y
}

// Momentum returns mass times velocity.
func (b *Body) Momentum() Vector2D {
	return b.Velocity.Scale(b.Mass)
}

// KineticEnergy returns ½mv².
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Velocity.LengthSquared()
}

// Speed returns the magnitude of the velocity.
func (b *Body) Speed() float64 {
	return b.Velocity.Length()
}

// MomentumSum adds up the momentum of several bodies.
func MomentumSum(bodies ...*Body) Vector2D {
	var total Vector2D
	for _, b := range bodies {
		total = total.Add(b.Momentum())
	}
	return total
}

// KineticEnergySum adds up the kinetic energy of several bodies.
func KineticEnergySum(bodies ...*Body) float64 {
	total := 0.0
	for _, b := range bodies {
		total += b.KineticEnergy()
	}
	return total
}
