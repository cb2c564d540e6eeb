package desktop

import "github.com/opd-ai/go-deskpet/pkg/physics"

// Handle is a platform-neutral native window identifier.
type Handle uintptr

// Point is a position in screen pixels.
type Point struct {
	X int
	Y int
}

// Sub returns p - o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// ManhattanLength returns |x| + |y|
func (p Point) ManhattanLength() int {
	return abs(p.X) + abs(p.Y)
}

// Rect describes a rectangular region in screen pixels.
// Right and Bottom are exclusive.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Left returns the left edge
func (r Rect) Left() int { return r.X }

// Top returns the top edge
func (r Rect) Top() int { return r.Y }

// Right returns the exclusive right edge
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge
func (r Rect) Bottom() int { return r.Y + r.Height }

// TopLeft returns the origin corner
func (r Rect) TopLeft() Point { return Point{X: r.X, Y: r.Y} }

// Empty reports whether the rectangle encloses no area
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Area returns Width*Height, or 0 for empty rectangles
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Intersects reports whether r and o share any area
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Intersect returns the common area of r and o, or the zero Rect
func (r Rect) Intersect(o Rect) Rect {
	if !r.Intersects(o) {
		return Rect{}
	}
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Contains reports whether p lies inside r
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Inset shrinks every edge by n pixels (negative n grows the rectangle)
func (r Rect) Inset(n int) Rect {
	return Rect{X: r.X + n, Y: r.Y + n, Width: r.Width - 2*n, Height: r.Height - 2*n}
}

// Translate moves the rectangle by (dx, dy)
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Matches reports whether every edge of r lies within tol pixels of o's
func (r Rect) Matches(o Rect, tol int) bool {
	return abs(r.Left()-o.Left()) <= tol &&
		abs(r.Top()-o.Top()) <= tol &&
		abs(r.Right()-o.Right()) <= tol &&
		abs(r.Bottom()-o.Bottom()) <= tol
}

// Physics converts the rectangle into engine coordinates
func (r Rect) Physics() physics.Rect {
	return physics.NewRect(float64(r.X), float64(r.Y), float64(r.Width), float64(r.Height))
}

// headFor picks the head containing the window centre, else the head with
// the largest overlap, else the first head.
func headFor(heads []Rect, bounds Rect) Rect {
	center := Point{X: bounds.X + bounds.Width/2, Y: bounds.Y + bounds.Height/2}
	best, bestArea := heads[0], 0
	for _, head := range heads {
		if head.Contains(center) {
			return head
		}
		if area := head.Intersect(bounds).Area(); area > bestArea {
			best, bestArea = head, area
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
