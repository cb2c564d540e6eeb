package render

import (
	"io"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-deskpet/pkg/bridge"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/logging"
)

func cell(desk *TerminalDesktop, x, y int) rune {
	r, _, _, _ := desk.Screen().GetContent(x, y)
	return r
}

func row(desk *TerminalDesktop, y int) string {
	w, _ := desk.Screen().Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		sb.WriteRune(cell(desk, x, y))
	}
	return sb.String()
}

func newTestRenderer(t *testing.T) (*TerminalDesktop, *Renderer) {
	desk := newTestDesk(t, 40, 12)
	return desk, NewRenderer(desk, logging.NewLoggerTo(io.Discard))
}

func press(x, y int) *tcell.EventMouse {
	return tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone)
}

func release(x, y int) *tcell.EventMouse {
	return tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone)
}

func TestRenderer_DrawsWindows(t *testing.T) {
	desk, r := newTestRenderer(t)
	desk.AddWindow("notes", desktop.Rect{X: 16, Y: 32, Width: 80, Height: 48})
	hidden := desk.AddWindow("hidden", desktop.Rect{X: 200, Y: 32, Width: 80, Height: 48})
	desk.SetMinimized(hidden, true)

	r.Draw()

	assert.Equal(t, tcell.RuneULCorner, cell(desk, 2, 2))
	assert.Equal(t, tcell.RuneURCorner, cell(desk, 11, 2))
	assert.Equal(t, tcell.RuneLRCorner, cell(desk, 11, 4))
	assert.Equal(t, tcell.RuneVLine, cell(desk, 2, 3))
	assert.Equal(t, 'n', cell(desk, 5, 2))
	assert.Equal(t, ' ', cell(desk, 25, 2), "minimized windows are not drawn")
}

func TestRenderer_DrawsPetAndBubble(t *testing.T) {
	desk, r := newTestRenderer(t)
	pet := desk.NewPetWindow("tux", nil, 5, 3)
	r.AddPet(pet)
	pet.Say("hi")

	r.Draw()

	assert.Equal(t, 't', cell(desk, 7, 3), "name tag is centered over the sprite")
	assert.Equal(t, '/', cell(desk, 6, 4))
	assert.Equal(t, '(', cell(desk, 5, 5))
	assert.Equal(t, '<', cell(desk, 12, 4))
	assert.Equal(t, 'h', cell(desk, 13, 4))
}

func TestRenderer_StatusBar(t *testing.T) {
	desk, r := newTestRenderer(t)
	pet := desk.NewPetWindow("tux", nil, 0, 0)
	r.AddPet(pet)
	r.SetStatus("physics on")
	pet.SetStat(bridge.StatBounceCount, 3)

	r.Draw()

	status := row(desk, 11)
	assert.True(t, strings.HasPrefix(status, "physics on | tux bounces:3"), status)
}

func TestRenderer_DragPet(t *testing.T) {
	desk, r := newTestRenderer(t)
	pet := desk.NewPetWindow("tux", nil, 5, 3)
	r.AddPet(pet)

	assert.False(t, r.HandleMouse(press(30, 8)), "press outside every pet")
	assert.False(t, r.HandleMouse(release(30, 8)))

	require.True(t, r.HandleMouse(press(6, 5)))
	assert.True(t, pet.Dragging())

	assert.True(t, r.HandleMouse(press(10, 5)))
	assert.Equal(t, desktop.Rect{X: 72, Y: 48, Width: 56, Height: 64}, pet.FrameGeometry())

	assert.True(t, r.HandleMouse(release(10, 5)))
	assert.False(t, pet.Dragging())
}

func TestRenderer_DragPicksTopmostPet(t *testing.T) {
	desk, r := newTestRenderer(t)
	below := desk.NewPetWindow("below", nil, 5, 3)
	above := desk.NewPetWindow("above", nil, 5, 3)
	r.AddPet(below)
	r.AddPet(above)

	require.True(t, r.HandleMouse(press(6, 5)))
	assert.True(t, above.Dragging())
	assert.False(t, below.Dragging())
	r.HandleMouse(release(6, 5))

	below.ReassertTopmost()
	require.True(t, r.HandleMouse(press(6, 5)))
	assert.True(t, below.Dragging())
}

func TestRenderer_RemovePetDuringDrag(t *testing.T) {
	desk, r := newTestRenderer(t)
	pet := desk.NewPetWindow("tux", nil, 5, 3)
	r.AddPet(pet)
	require.True(t, r.HandleMouse(press(6, 5)))

	r.RemovePet(pet)

	assert.False(t, r.HandleMouse(release(6, 5)))
	r.Draw()
	assert.Equal(t, ' ', cell(desk, 7, 3))
}
