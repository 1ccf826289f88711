// pkg/physics/vector.go
package physics

import (
	"fmt"
	"math"
)

// Vector2D represents a 2D vector with x and y components.
// Every method returns a new value and leaves the receiver untouched.
type Vector2D struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Add returns the sum of two vectors
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X + other.X,
		Y: v.Y + other.Y,
	}
}

// Sub returns the difference between two vectors
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X - other.X,
		Y: v.Y - other.Y,
	}
}

// Scale multiplies the vector by a scalar value
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D{
		X: v.X * factor,
		Y: v.Y * factor,
	}
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSquared returns magnitude squared (optimization for comparisons)
func (v Vector2D) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Unit divides both components by the length.
// The zero vector has no direction; the result is NaN in that case and callers
// must check the length first when it can be zero.
func (v Vector2D) Unit() Vector2D {
	length := v.Length()
	return Vector2D{
		X: v.X / length,
		Y: v.Y / length,
	}
}

// Normal returns v rotated by 90 degrees counter-clockwise.
func (v Vector2D) Normal() Vector2D {
	return Vector2D{X: -v.Y, Y: v.X}
}

// Invert returns the vector pointing the opposite way.
func (v Vector2D) Invert() Vector2D {
	return Vector2D{X: -v.X, Y: -v.Y}
}

// Distance returns the distance between two vectors
func (v Vector2D) Distance(other Vector2D) float64 {
	return v.Sub(other).Length()
}

// Angle returns the angle of the vector in radians, 0 for the zero vector.
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Dot returns the dot product of two vectors
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// String formats the vector with components rounded to integers.
func (v Vector2D) String() string {
	return fmt.Sprintf("(%d,%d)", int64(math.Round(v.X)), int64(math.Round(v.Y)))
}

// FromPolar creates a vector from a magnitude and an angle in radians.
func FromPolar(r, theta float64) Vector2D {
	return Vector2D{
		X: r * math.Cos(theta),
		Y: r * math.Sin(theta),
	}
}
