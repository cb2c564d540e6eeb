package render

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-deskpet/pkg/desktop"
)

// Terminal cells are mapped to desktop pixels at a fixed aspect, so physics
// constants tuned for real screens behave the same in a terminal.
const (
	CellWidth  = 8
	CellHeight = 16
)

// DefaultRefreshRate is reported for the terminal "monitor"
const DefaultRefreshRate = 60.0

// TerminalDesktop presents a tcell screen as a desktop: the screen is the
// only monitor and boxes drawn on it are top-level windows. It implements
// desktop.Backend.
type TerminalDesktop struct {
	mu      sync.RWMutex
	screen  tcell.Screen
	rate    float64
	windows map[desktop.Handle]*desktop.Window
	order   []desktop.Handle
	next    desktop.Handle
}

var _ desktop.Backend = (*TerminalDesktop)(nil)

// NewTerminalDesktop wraps an initialized screen
func NewTerminalDesktop(screen tcell.Screen, refreshRate float64) *TerminalDesktop {
	if refreshRate <= 1 {
		refreshRate = DefaultRefreshRate
	}
	return &TerminalDesktop{
		screen:  screen,
		rate:    refreshRate,
		windows: make(map[desktop.Handle]*desktop.Window),
		next:    1,
	}
}

// Screen returns the wrapped screen
func (t *TerminalDesktop) Screen() tcell.Screen {
	return t.screen
}

// Bounds returns the screen area in desktop pixels
func (t *TerminalDesktop) Bounds() desktop.Rect {
	w, h := t.screen.Size()
	return desktop.Rect{Width: w * CellWidth, Height: h * CellHeight}
}

// PrimaryMonitor implements desktop.Backend. The bottom row is reserved for
// the status bar and excluded from the work area.
func (t *TerminalDesktop) PrimaryMonitor() (desktop.Monitor, error) {
	bounds := t.Bounds()
	work := bounds
	if work.Height > CellHeight {
		work.Height -= CellHeight
	}
	return desktop.Monitor{Bounds: bounds, WorkArea: work, RefreshRate: t.rate}, nil
}

// MonitorFor implements desktop.Backend
func (t *TerminalDesktop) MonitorFor(desktop.Handle) (desktop.Monitor, error) {
	return t.PrimaryMonitor()
}

// Windows implements desktop.Backend. Windows are returned in stacking
// order, bottom first.
func (t *TerminalDesktop) Windows() ([]desktop.Window, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]desktop.Window, 0, len(t.order))
	for _, h := range t.order {
		out = append(out, *t.windows[h])
	}
	return out, nil
}

// AddWindow places a window with bounds in desktop pixels and returns its
// handle.
func (t *TerminalDesktop) AddWindow(title string, bounds desktop.Rect) desktop.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.next
	t.next++
	t.windows[h] = &desktop.Window{
		Handle:  h,
		Class:   "TerminalWindow",
		Title:   title,
		Bounds:  bounds,
		Visible: true,
	}
	t.order = append(t.order, h)
	return h
}

// SetMinimized hides or restores a window
func (t *TerminalDesktop) SetMinimized(h desktop.Handle, minimized bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[h]
	if !ok {
		return false
	}
	w.Minimized = minimized
	return true
}

// RemoveWindow closes a window
func (t *TerminalDesktop) RemoveWindow(h desktop.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.windows[h]; !ok {
		return false
	}
	delete(t.windows, h)
	for i, oh := range t.order {
		if oh == h {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// reserve hands out a handle for a window that is drawn but not enumerated,
// such as a pet.
func (t *TerminalDesktop) reserve() desktop.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.next
	t.next++
	return h
}

// ToCells converts a desktop rectangle to cell coordinates, rounding the
// origin down and the far edge up.
func ToCells(r desktop.Rect) (x, y, w, h int) {
	x = floorDiv(r.X, CellWidth)
	y = floorDiv(r.Y, CellHeight)
	w = ceilDiv(r.Right(), CellWidth) - x
	h = ceilDiv(r.Bottom(), CellHeight) - y
	return x, y, w, h
}

// FromCell returns the desktop pixel at the top-left of cell (x, y)
func FromCell(x, y int) desktop.Point {
	return desktop.Point{X: x * CellWidth, Y: y * CellHeight}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
