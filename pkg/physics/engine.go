// Package physics integrates the kinematic state of a single desktop sprite
// and resolves its contacts with the screen edges and with obstacle windows.
// Everything here is pure math: no clocks, no window system.
package physics

import "math"

// Config holds the tunable forces and contact parameters of an Engine.
// Out-of-range values are clamped where they are used and never rejected.
type Config struct {
	Gravity    float64 // px/s², added to the y axis
	AccelX     float64 // px/s²
	AccelY     float64 // px/s²
	Friction   float64 // velocity retained per second, clamped to [0,1]
	Elasticity float64 // fraction of normal velocity kept on contact, clamped to [0,1]
	MaxSpeed   float64 // px/s, 0 = unlimited

	GravityEnabled  bool
	AccelEnabled    bool
	InvertForces    bool
	FrictionEnabled bool
	BounceEnabled   bool
}

// Engine holds position, velocity and contact telemetry for one sprite
type Engine struct {
	Config Config

	Position Vector2D
	Velocity Vector2D

	// Telemetry
	LastAcceleration     Vector2D
	LastAccel            float64 // magnitude of LastAcceleration
	BounceCount          int
	WindowCollisionCount int
}

// NewEngine creates an engine at rest at the origin
func NewEngine(cfg Config) *Engine {
	return &Engine{Config: cfg}
}

// SetPosition overrides the position, used to resync after drags and external moves
func (e *Engine) SetPosition(x, y float64) {
	e.Position = Vector2D{X: x, Y: y}
}

// SetVelocity overrides the velocity
func (e *Engine) SetVelocity(vx, vy float64) {
	e.Velocity = Vector2D{X: vx, Y: vy}
}

// ResetCounters zeroes the contact telemetry. Physical state is untouched.
func (e *Engine) ResetCounters() {
	e.BounceCount = 0
	e.WindowCollisionCount = 0
}

// Acceleration returns the net acceleration the current config applies
func (e *Engine) Acceleration() Vector2D {
	var a Vector2D
	if e.Config.GravityEnabled {
		a.Y += e.Config.Gravity
	}
	if e.Config.AccelEnabled {
		a.X += e.Config.AccelX
		a.Y += e.Config.AccelY
	}
	if e.Config.InvertForces {
		a = a.Scale(-1)
	}
	return a
}

// Step advances the state by dt seconds with semi-implicit Euler integration.
// Friction is applied as exponential decay (friction^dt) so the retained
// velocity per second does not depend on the tick length.
func (e *Engine) Step(dt float64) {
	if dt <= 0 {
		return
	}

	a := e.Acceleration()
	e.LastAcceleration = a
	e.LastAccel = a.Length()

	e.Velocity = e.Velocity.Add(a.Scale(dt)).ClampLength(e.Config.MaxSpeed)
	e.Position = e.Position.Add(e.Velocity.Scale(dt))

	if e.Config.FrictionEnabled {
		e.Velocity = e.Velocity.Scale(math.Pow(clamp01(e.Config.Friction), dt))
	}
}

// ResolveBounds keeps a w x h sprite inside bounds. Every edge contact clamps
// the position to that edge and counts as one bounce.
func (e *Engine) ResolveBounds(bounds Rect, w, h float64) {
	if e.Position.Y+h > bounds.Bottom() {
		e.Position.Y = bounds.Bottom() - h
		e.Velocity.Y = e.contactVelocity(e.Velocity.Y, -1)
		e.BounceCount++
	}
	if e.Position.Y < bounds.Top() {
		e.Position.Y = bounds.Top()
		e.Velocity.Y = e.contactVelocity(e.Velocity.Y, 1)
		e.BounceCount++
	}
	if e.Position.X < bounds.Left() {
		e.Position.X = bounds.Left()
		e.Velocity.X = e.contactVelocity(e.Velocity.X, 1)
		e.BounceCount++
	}
	if e.Position.X+w > bounds.Right() {
		e.Position.X = bounds.Right() - w
		e.Velocity.X = e.contactVelocity(e.Velocity.X, -1)
		e.BounceCount++
	}
}

// contactVelocity returns the post-contact normal velocity component, pointing
// along dir (+1 or -1) when bouncing and zero otherwise.
func (e *Engine) contactVelocity(v, dir float64) float64 {
	if !e.Config.BounceEnabled {
		return 0
	}
	return dir * math.Abs(v) * clamp01(e.Config.Elasticity)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
