package bridge

import "github.com/opd-ai/go-deskpet/pkg/desktop"

// Host is the window that carries the pet sprite. The bridge only reads its
// geometry and moves it; it never owns the window.
type Host interface {
	Handle() desktop.Handle
	FrameGeometry() desktop.Rect
	Dragging() bool
	Move(x, y int)
}

// SpriteRecter reports the visible sprite box in screen coordinates when it
// differs from the window frame. ok=false or an empty rect means "use the
// frame".
type SpriteRecter interface {
	SpriteCollisionRect() (r desktop.Rect, ok bool)
}

// OverlayProvider reports an attached dialogue overlay relative to the window
// frame origin. An empty rect means no overlay is shown.
type OverlayProvider interface {
	OverlayGeometry() desktop.Rect
}

// TopmostMover moves the window while keeping it above other windows, without
// the flicker of a separate raise. It reports false when the move failed.
type TopmostMover interface {
	MoveTopmost(x, y int) bool
}

// TopmostKeeper reasserts "always on top" for window systems that drop it
type TopmostKeeper interface {
	ReassertTopmost()
}

// StatsSink receives motion statistics for display
type StatsSink interface {
	SetStat(name string, value float64)
}

// Stat names published to a StatsSink
const (
	StatAcceleration         = "physics_acceleration"
	StatBounceCount          = "physics_bounce_count"
	StatFallDistance         = "physics_fall_distance"
	StatWindowCollisionCount = "physics_window_collision_count"
)
