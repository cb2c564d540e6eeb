package bridge

import (
	"sync"
	"time"
)

// Timer schedules the bridge tick. Start replaces any running schedule and
// Stop cancels it; neither waits for a callback already in flight.
type Timer interface {
	Start(interval time.Duration, fn func())
	Stop()
	Active() bool
	Interval() time.Duration
}

// TickerTimer runs fn on its own goroutine from a time.Ticker
type TickerTimer struct {
	mu       sync.Mutex
	stop     chan struct{}
	interval time.Duration
}

var _ Timer = (*TickerTimer)(nil)

// NewTickerTimer creates a stopped timer
func NewTickerTimer() *TickerTimer {
	return &TickerTimer{}
}

// Start implements Timer
func (t *TickerTimer) Start(interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = time.Millisecond
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	stop := make(chan struct{})
	t.stop = stop
	t.interval = interval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Stop implements Timer
func (t *TickerTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *TickerTimer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// Active implements Timer
func (t *TickerTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Interval implements Timer
func (t *TickerTimer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}
