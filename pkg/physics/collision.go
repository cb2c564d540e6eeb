// pkg/physics/collision.go
package physics

// Side identifies the obstacle edge a sprite was pushed out through
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
	SideTop
	SideBottom
)

// String returns the side name
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	default:
		return "none"
	}
}

// CollisionResult contains information about a sprite/obstacle overlap
type CollisionResult struct {
	Collided    bool
	Side        Side
	Penetration float64
}

// CheckRectCollision finds the least-penetration exit for a w x h sprite at
// pos overlapping obstacle. Exact ties resolve in the order left, right,
// top, bottom.
func CheckRectCollision(pos Vector2D, w, h float64, obstacle Rect) CollisionResult {
	if !obstacle.Overlaps(pos.X, pos.Y, w, h) {
		return CollisionResult{}
	}

	candidates := [...]struct {
		side    Side
		overlap float64
	}{
		{SideLeft, pos.X + w - obstacle.Left()},
		{SideRight, obstacle.Right() - pos.X},
		{SideTop, pos.Y + h - obstacle.Top()},
		{SideBottom, obstacle.Bottom() - pos.Y},
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.overlap < best.overlap {
			best = c
		}
	}

	return CollisionResult{
		Collided:    true,
		Side:        best.side,
		Penetration: best.overlap,
	}
}

// ResolveRectCollisions pushes the sprite out of every obstacle it overlaps,
// in slice order, along the axis of least penetration.
func (e *Engine) ResolveRectCollisions(rects []Rect, w, h float64) {
	for _, rect := range rects {
		result := CheckRectCollision(e.Position, w, h, rect)
		if !result.Collided {
			continue
		}

		switch result.Side {
		case SideLeft:
			e.Position.X = rect.Left() - w
			e.Velocity.X = e.contactVelocity(e.Velocity.X, -1)
		case SideRight:
			e.Position.X = rect.Right()
			e.Velocity.X = e.contactVelocity(e.Velocity.X, 1)
		case SideTop:
			e.Position.Y = rect.Top() - h
			e.Velocity.Y = e.contactVelocity(e.Velocity.Y, -1)
		case SideBottom:
			e.Position.Y = rect.Bottom()
			e.Velocity.Y = e.contactVelocity(e.Velocity.Y, 1)
		}
		e.BounceCount++
		e.WindowCollisionCount++
	}
}
