// pkg/render/renderer.go
package render

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-deskpet/pkg/bridge"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/logging"
)

var (
	windowStyle = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	titleStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	petStyle    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	tagStyle    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	bubbleStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	statusStyle = tcell.StyleDefault.Reverse(true)
)

// Renderer draws a TerminalDesktop and its pets, and turns mouse input
// into pet drags.
type Renderer struct {
	mu     sync.Mutex
	desk   *TerminalDesktop
	pets   []*PetWindow
	drag   *PetWindow
	status string
	logger *logging.Logger
}

// NewRenderer creates a renderer for desk
func NewRenderer(desk *TerminalDesktop, logger *logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Renderer{
		desk:   desk,
		logger: logger.With("component", "render"),
	}
}

// AddPet registers a pet for drawing and dragging
func (r *Renderer) AddPet(p *PetWindow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pets = append(r.pets, p)
}

// RemovePet stops drawing p
func (r *Renderer) RemovePet(p *PetWindow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.pets {
		if q == p {
			r.pets = append(r.pets[:i], r.pets[i+1:]...)
			break
		}
	}
	if r.drag == p {
		r.drag = nil
	}
}

// SetStatus sets the text shown at the left of the status bar
func (r *Renderer) SetStatus(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

// Draw renders one frame and shows it
func (r *Renderer) Draw() {
	r.mu.Lock()
	pets := append([]*PetWindow(nil), r.pets...)
	status := r.status
	r.mu.Unlock()

	screen := r.desk.Screen()
	screen.Clear()

	windows, _ := r.desk.Windows()
	for _, w := range windows {
		if w.Minimized || !w.Visible {
			continue
		}
		r.drawWindow(w)
	}

	sort.SliceStable(pets, func(i, j int) bool { return pets[i].zOrder() < pets[j].zOrder() })
	for _, p := range pets {
		r.drawPet(p)
	}

	r.drawStatus(status, pets)
	screen.Show()
}

// HandleMouse drags pets with the primary button. It reports whether the
// event affected a pet.
func (r *Renderer) HandleMouse(ev *tcell.EventMouse) bool {
	cx, cy := ev.Position()
	pt := FromCell(cx, cy)
	pt.X += CellWidth / 2
	pt.Y += CellHeight / 2
	pressed := ev.Buttons()&tcell.Button1 != 0

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case pressed && r.drag != nil:
		r.drag.DragTo(pt)
		return true
	case pressed:
		p := r.petAt(pt)
		if p == nil || !p.StartDrag(pt) {
			return false
		}
		p.ReassertTopmost()
		r.drag = p
		r.logger.Debug(context.Background(), "drag started", "pet", p.Name())
		return true
	case r.drag != nil:
		r.drag.EndDrag()
		r.logger.Debug(context.Background(), "drag released", "pet", r.drag.Name())
		r.drag = nil
		return true
	}
	return false
}

// petAt returns the topmost pet whose frame contains pt. Caller holds mu.
func (r *Renderer) petAt(pt desktop.Point) *PetWindow {
	var hit *PetWindow
	for _, p := range r.pets {
		if !p.FrameGeometry().Contains(pt) {
			continue
		}
		if hit == nil || p.zOrder() > hit.zOrder() {
			hit = p
		}
	}
	return hit
}

func (r *Renderer) drawWindow(w desktop.Window) {
	x, y, cw, ch := ToCells(w.Bounds)
	if cw < 2 || ch < 2 {
		return
	}
	screen := r.desk.Screen()
	right, bottom := x+cw-1, y+ch-1
	for i := x + 1; i < right; i++ {
		screen.SetContent(i, y, tcell.RuneHLine, nil, windowStyle)
		screen.SetContent(i, bottom, tcell.RuneHLine, nil, windowStyle)
	}
	for j := y + 1; j < bottom; j++ {
		screen.SetContent(x, j, tcell.RuneVLine, nil, windowStyle)
		screen.SetContent(right, j, tcell.RuneVLine, nil, windowStyle)
	}
	screen.SetContent(x, y, tcell.RuneULCorner, nil, windowStyle)
	screen.SetContent(right, y, tcell.RuneURCorner, nil, windowStyle)
	screen.SetContent(x, bottom, tcell.RuneLLCorner, nil, windowStyle)
	screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, windowStyle)

	if w.Title != "" && cw > 4 {
		r.putString(x+2, y, truncate(" "+w.Title+" ", cw-4), titleStyle)
	}
}

func (r *Renderer) drawPet(p *PetWindow) {
	x, y, cw, _ := ToCells(p.FrameGeometry())

	name := truncate(p.Name(), cw)
	r.putString(x+(cw-len([]rune(name)))/2, y, name, tagStyle)
	for i, line := range p.art {
		r.putString(x, y+1+i, line, petStyle)
	}
	if speech := p.Speech(); speech != "" {
		r.putString(x+cw, y+1, "<"+speech+">", bubbleStyle)
	}
}

func (r *Renderer) drawStatus(status string, pets []*PetWindow) {
	screen := r.desk.Screen()
	w, h := screen.Size()
	if h == 0 {
		return
	}
	row := h - 1
	for i := 0; i < w; i++ {
		screen.SetContent(i, row, ' ', nil, statusStyle)
	}

	parts := []string{}
	if status != "" {
		parts = append(parts, status)
	}
	for _, p := range pets {
		parts = append(parts, FormatStats(p))
	}
	r.putString(0, row, truncate(strings.Join(parts, " | "), w), statusStyle)
}

// FormatStats summarizes the motion statistics a pet received
func FormatStats(p *PetWindow) string {
	return fmt.Sprintf("%s bounces:%.0f windows:%.0f fall:%.0f accel:%.0f",
		p.Name(),
		p.Stat(bridge.StatBounceCount),
		p.Stat(bridge.StatWindowCollisionCount),
		p.Stat(bridge.StatFallDistance),
		p.Stat(bridge.StatAcceleration),
	)
}

func (r *Renderer) putString(x, y int, s string, style tcell.Style) {
	screen := r.desk.Screen()
	w, h := screen.Size()
	if y < 0 || y >= h {
		return
	}
	for _, c := range s {
		if x >= 0 && x < w {
			screen.SetContent(x, y, c, nil, style)
		}
		x++
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
