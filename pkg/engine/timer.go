// pkg/engine/timer.go
package engine

import (
	"sync"
	"time"

	"github.com/opd-ai/go-deskpet/pkg/bridge"
)

// FrameTimer is a bridge.Timer driven by the desktop frame loop instead of a
// goroutine. Advance fires the callback at most once per frame, so a long
// frame never produces a burst of catch-up ticks.
type FrameTimer struct {
	mu       sync.Mutex
	active   bool
	interval time.Duration
	elapsed  time.Duration
	fn       func()
}

var _ bridge.Timer = (*FrameTimer)(nil)

// Start implements bridge.Timer
func (t *FrameTimer) Start(interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = time.Millisecond
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.interval = interval
	t.elapsed = 0
	t.fn = fn
}

// Stop implements bridge.Timer
func (t *FrameTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.elapsed = 0
}

// Active implements bridge.Timer
func (t *FrameTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Interval implements bridge.Timer
func (t *FrameTimer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// Advance adds dt to the timer and fires the callback once if an interval
// has elapsed. It reports whether the callback ran.
func (t *FrameTimer) Advance(dt time.Duration) bool {
	t.mu.Lock()
	if !t.active || t.fn == nil {
		t.mu.Unlock()
		return false
	}
	t.elapsed += dt
	if t.elapsed < t.interval {
		t.mu.Unlock()
		return false
	}
	t.elapsed %= t.interval
	fn := t.fn
	t.mu.Unlock()

	fn()
	return true
}
