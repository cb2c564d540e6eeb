package render

import (
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/opd-ai/go-deskpet/pkg/bridge"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/validation"
)

// DefaultArt is the sprite drawn when a pet has no art of its own
var DefaultArt = []string{
	` /\_/\ `,
	`( o.o )`,
	` > ^ < `,
}

// raiseSeq orders pets for drawing; a higher value is drawn later
var raiseSeq atomic.Uint64

// PetWindow is a pet drawn on a TerminalDesktop. Its frame has a one-row
// name tag above the sprite, so the sprite box and the frame differ, and a
// speech bubble to the right while the pet is talking.
type PetWindow struct {
	mu       sync.Mutex
	handle   desktop.Handle
	name     string
	art      []string
	frame    desktop.Rect
	speech   string
	dragging bool
	grab     desktop.Point
	stats    map[string]float64
	z        uint64
}

var (
	_ bridge.Host            = (*PetWindow)(nil)
	_ bridge.SpriteRecter    = (*PetWindow)(nil)
	_ bridge.OverlayProvider = (*PetWindow)(nil)
	_ bridge.TopmostMover    = (*PetWindow)(nil)
	_ bridge.TopmostKeeper   = (*PetWindow)(nil)
	_ bridge.StatsSink       = (*PetWindow)(nil)
)

// NewPetWindow creates a pet with its frame's top-left at cell (x, y). Nil
// art uses DefaultArt.
func (t *TerminalDesktop) NewPetWindow(name string, art []string, x, y int) *PetWindow {
	if len(art) == 0 {
		art = DefaultArt
	}
	cols := utf8.RuneCountInString(name)
	for _, line := range art {
		if n := utf8.RuneCountInString(line); n > cols {
			cols = n
		}
	}
	origin := FromCell(x, y)
	return &PetWindow{
		handle: t.reserve(),
		name:   name,
		art:    art,
		frame: desktop.Rect{
			X:      origin.X,
			Y:      origin.Y,
			Width:  cols * CellWidth,
			Height: (len(art) + 1) * CellHeight,
		},
		stats: make(map[string]float64),
		z:     raiseSeq.Add(1),
	}
}

// Name returns the pet's name
func (p *PetWindow) Name() string {
	return p.name
}

// Handle implements bridge.Host
func (p *PetWindow) Handle() desktop.Handle {
	return p.handle
}

// FrameGeometry implements bridge.Host
func (p *PetWindow) FrameGeometry() desktop.Rect {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Dragging implements bridge.Host
func (p *PetWindow) Dragging() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dragging
}

// Move implements bridge.Host
func (p *PetWindow) Move(x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame.X, p.frame.Y = x, y
}

// MoveTopmost implements bridge.TopmostMover. Pets are always drawn above
// windows, so the move cannot fail.
func (p *PetWindow) MoveTopmost(x, y int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame.X, p.frame.Y = x, y
	return true
}

// ReassertTopmost implements bridge.TopmostKeeper by drawing this pet above
// the other pets.
func (p *PetWindow) ReassertTopmost() {
	z := raiseSeq.Add(1)
	p.mu.Lock()
	p.z = z
	p.mu.Unlock()
}

// SpriteCollisionRect implements bridge.SpriteRecter: the frame without the
// name tag row.
func (p *PetWindow) SpriteCollisionRect() (desktop.Rect, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.frame
	r.Y += CellHeight
	r.Height -= CellHeight
	return r, true
}

// OverlayGeometry implements bridge.OverlayProvider. The bubble sits to the
// right of the frame on the sprite's first row.
func (p *PetWindow) OverlayGeometry() desktop.Rect {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speech == "" {
		return desktop.Rect{}
	}
	return desktop.Rect{
		X:      p.frame.Width,
		Y:      CellHeight,
		Width:  (utf8.RuneCountInString(p.speech) + 2) * CellWidth,
		Height: CellHeight,
	}
}

// SetStat implements bridge.StatsSink
func (p *PetWindow) SetStat(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats[name] = value
}

// Stat returns the last value published under name
func (p *PetWindow) Stat(name string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats[name]
}

// Say shows text in a speech bubble; an empty string hides it
func (p *PetWindow) Say(text string) {
	text = validation.SanitizeSpeech(text)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speech = text
}

// Speech returns the bubble text
func (p *PetWindow) Speech() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speech
}

// StartDrag grabs the pet at pointer position pt. It reports false when pt is
// outside the frame.
func (p *PetWindow) StartDrag(pt desktop.Point) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.frame.Contains(pt) {
		return false
	}
	p.dragging = true
	p.grab = pt.Sub(p.frame.TopLeft())
	return true
}

// DragTo moves a grabbed pet so the grab point follows the pointer
func (p *PetWindow) DragTo(pt desktop.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dragging {
		return
	}
	origin := pt.Sub(p.grab)
	p.frame.X, p.frame.Y = origin.X, origin.Y
}

// EndDrag releases the pet
func (p *PetWindow) EndDrag() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dragging = false
}

func (p *PetWindow) zOrder() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.z
}
