// pkg/physics/vector.go
package physics

import "math"

// Vector2D represents a 2D vector with x and y components
type Vector2D struct {
	X float64
	Y float64
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

// Lerp blends v toward other by weight alpha (0 keeps v, 1 yields other)
func (v Vector2D) Lerp(other Vector2D, alpha float64) Vector2D {
	return v.Scale(1 - alpha).Add(other.Scale(alpha))
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// LengthSquared returns magnitude squared (optimization for comparisons)
func (v Vector2D) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// ClampLength scales the vector down to maxLength, preserving direction.
// A non-positive maxLength means unlimited.
func (v Vector2D) ClampLength(maxLength float64) Vector2D {
	if maxLength <= 0 {
		return v
	}
	lenSq := v.LengthSquared()
	maxSq := maxLength * maxLength
	if lenSq <= maxSq {
		return v
	}
	return v.Scale(math.Sqrt(maxSq / lenSq))
}
