package bridge

import (
	"time"

	"github.com/opd-ai/go-deskpet/pkg/physics"
)

// MaxActionDuration bounds timed actions
const MaxActionDuration = 300 * time.Second

// directions maps the numbered compass used by pet actions, counter-clockwise
// from east in screen coordinates (y grows downward).
var directions = [8]physics.Vector2D{
	{X: 1, Y: 0},
	{X: 1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: -1},
	{X: -1, Y: 0},
	{X: -1, Y: 1},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
}

type forces struct {
	gravity, accelX, accelY float64
}

// AddDirectionalAcceleration adds magnitude px/s² along direction 1..8
// (1 = east, 3 = up, 5 = west, 7 = down) and enables acceleration.
// Out-of-range directions are clamped.
func (b *Bridge) AddDirectionalAcceleration(direction int, magnitude float64) {
	if direction < 1 {
		direction = 1
	}
	if direction > len(directions) {
		direction = len(directions)
	}
	d := directions[direction-1]

	b.do(func() {
		b.engine.Config.AccelX += d.X * magnitude
		b.engine.Config.AccelY += d.Y * magnitude
		b.engine.Config.AccelEnabled = true
		b.logger.Debug(b.ctx, "acceleration added", "direction", direction, "magnitude", magnitude)
	})
}

// DisableFor pauses the simulation for d (at most MaxActionDuration). A later
// SetEnabled or DisableFor call supersedes the pending resume.
func (b *Bridge) DisableFor(d time.Duration) {
	d = clampDuration(d)
	b.do(func() {
		b.setEnabled(false)
		token := b.disableToken
		b.schedule(d, func() {
			if b.disableToken == token {
				b.setEnabled(true)
			}
		})
	})
}

// MultiplyForces scales gravity and acceleration by multiplier for d (at most
// MaxActionDuration). Overlapping calls compound; the forces from before the
// first of them are restored when the last one expires. Restoring the latest
// call's snapshot instead would leave the compounded forces of earlier calls
// in place permanently.
func (b *Bridge) MultiplyForces(multiplier float64, d time.Duration) {
	d = clampDuration(d)
	b.do(func() {
		cfg := &b.engine.Config
		if b.forceRestore == nil {
			b.forceRestore = &forces{gravity: cfg.Gravity, accelX: cfg.AccelX, accelY: cfg.AccelY}
		}
		cfg.Gravity *= multiplier
		cfg.AccelX *= multiplier
		cfg.AccelY *= multiplier

		b.forceToken++
		token := b.forceToken
		b.schedule(d, func() {
			if b.forceToken != token || b.forceRestore == nil {
				return
			}
			cfg := &b.engine.Config
			cfg.Gravity = b.forceRestore.gravity
			cfg.AccelX = b.forceRestore.accelX
			cfg.AccelY = b.forceRestore.accelY
			b.forceRestore = nil
		})
	})
}

// schedule runs fn under the bridge lock after d. Close cancels it.
func (b *Bridge) schedule(d time.Duration, fn func()) {
	b.pendingSeq++
	id := b.pendingSeq
	b.pending[id] = b.after(d, func() {
		b.do(func() {
			if _, ok := b.pending[id]; !ok {
				return
			}
			delete(b.pending, id)
			fn()
		})
	})
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxActionDuration {
		return MaxActionDuration
	}
	return d
}
