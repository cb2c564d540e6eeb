package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/go-deskpet/pkg/desktop"
)

func TestNewPetWindow_FrameFitsArtAndTag(t *testing.T) {
	desk := newTestDesk(t, 40, 12)

	pet := desk.NewPetWindow("tux", nil, 2, 1)
	assert.Equal(t, desktop.Rect{X: 16, Y: 16, Width: 56, Height: 64}, pet.FrameGeometry())

	long := desk.NewPetWindow("bartholomew", []string{"@"}, 0, 0)
	assert.Equal(t, desktop.Rect{Width: 88, Height: 32}, long.FrameGeometry(), "a long name widens the frame")
	assert.NotEqual(t, pet.Handle(), long.Handle())
}

func TestPetWindow_SpriteExcludesNameTag(t *testing.T) {
	desk := newTestDesk(t, 40, 12)
	pet := desk.NewPetWindow("tux", nil, 2, 1)

	sprite, ok := pet.SpriteCollisionRect()
	assert.True(t, ok)
	assert.Equal(t, desktop.Rect{X: 16, Y: 32, Width: 56, Height: 48}, sprite)
}

func TestPetWindow_Overlay(t *testing.T) {
	desk := newTestDesk(t, 40, 12)
	pet := desk.NewPetWindow("tux", nil, 0, 0)

	assert.True(t, pet.OverlayGeometry().Empty())

	pet.Say("hi")
	assert.Equal(t, desktop.Rect{X: 56, Y: 16, Width: 32, Height: 16}, pet.OverlayGeometry())
	assert.Equal(t, "hi", pet.Speech())

	pet.Say("")
	assert.True(t, pet.OverlayGeometry().Empty())

	pet.Say("two\nlines")
	assert.Equal(t, "two lines", pet.Speech(), "bubbles are one row")
}

func TestPetWindow_MoveAndStats(t *testing.T) {
	desk := newTestDesk(t, 40, 12)
	pet := desk.NewPetWindow("tux", nil, 0, 0)

	pet.Move(5, 6)
	assert.Equal(t, desktop.Point{X: 5, Y: 6}, pet.FrameGeometry().TopLeft())
	assert.True(t, pet.MoveTopmost(7, 8))
	assert.Equal(t, desktop.Point{X: 7, Y: 8}, pet.FrameGeometry().TopLeft())

	pet.SetStat("physics_bounce_count", 2)
	assert.Equal(t, 2.0, pet.Stat("physics_bounce_count"))
	assert.Zero(t, pet.Stat("unknown"))
}

func TestPetWindow_DragRequiresGrab(t *testing.T) {
	desk := newTestDesk(t, 40, 12)
	pet := desk.NewPetWindow("tux", nil, 0, 0)

	pet.DragTo(desktop.Point{X: 100, Y: 100})
	assert.Equal(t, desktop.Point{}, pet.FrameGeometry().TopLeft(), "no grab, no move")

	assert.False(t, pet.StartDrag(desktop.Point{X: 500, Y: 500}))
	assert.True(t, pet.StartDrag(desktop.Point{X: 10, Y: 10}))
	pet.DragTo(desktop.Point{X: 110, Y: 60})
	assert.Equal(t, desktop.Point{X: 100, Y: 50}, pet.FrameGeometry().TopLeft())

	pet.EndDrag()
	assert.False(t, pet.Dragging())
}
