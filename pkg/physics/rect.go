package physics

// Rect is an axis-aligned rectangle anchored at its top-left corner.
// Right and Bottom are exclusive edges.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates a rectangle from its top-left corner and size
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge
func (r Rect) Left() float64 { return r.X }

// Top returns the top edge
func (r Rect) Top() float64 { return r.Y }

// Right returns the exclusive right edge
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the exclusive bottom edge
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the rectangle encloses no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether a box of size w x h at (x, y) shares any area with r.
// Touching edges do not count as overlap.
func (r Rect) Overlaps(x, y, w, h float64) bool {
	if r.Empty() || w <= 0 || h <= 0 {
		return false
	}
	if x >= r.Right() || x+w <= r.Left() {
		return false
	}
	if y >= r.Bottom() || y+h <= r.Top() {
		return false
	}
	return true
}
