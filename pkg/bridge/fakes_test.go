package bridge

import (
	"io"
	"sync"
	"time"

	"github.com/opd-ai/go-deskpet/pkg/config"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/logging"
)

type fakeHost struct {
	handle   desktop.Handle
	frame    desktop.Rect
	sprite   desktop.Rect // relative to frame origin; empty = whole frame
	dragging bool
	moves    []desktop.Point
	stats    map[string]float64
}

func newFakeHost(frame desktop.Rect) *fakeHost {
	return &fakeHost{handle: 7, frame: frame, stats: make(map[string]float64)}
}

func (h *fakeHost) Handle() desktop.Handle      { return h.handle }
func (h *fakeHost) FrameGeometry() desktop.Rect { return h.frame }
func (h *fakeHost) Dragging() bool              { return h.dragging }

func (h *fakeHost) Move(x, y int) {
	h.frame.X, h.frame.Y = x, y
	h.moves = append(h.moves, desktop.Point{X: x, Y: y})
}

func (h *fakeHost) SpriteCollisionRect() (desktop.Rect, bool) {
	if h.sprite.Empty() {
		return desktop.Rect{}, false
	}
	return h.sprite.Translate(h.frame.X, h.frame.Y), true
}

func (h *fakeHost) SetStat(name string, value float64) {
	h.stats[name] = value
}

// topmostHost adds the optional always-on-top capabilities
type topmostHost struct {
	*fakeHost
	topmostOK  bool
	topmost    int
	reasserted int
	overlay    desktop.Rect
}

func (h *topmostHost) MoveTopmost(x, y int) bool {
	h.topmost++
	if h.topmostOK {
		h.frame.X, h.frame.Y = x, y
	}
	return h.topmostOK
}

func (h *topmostHost) ReassertTopmost() { h.reasserted++ }

func (h *topmostHost) OverlayGeometry() desktop.Rect { return h.overlay }

type fakeScanner struct {
	screen    desktop.Rect
	rate      float64
	obstacles []desktop.Rect
	ignored   []desktop.Handle
	scans     int
}

func (s *fakeScanner) ScreenGeometry(desktop.Handle) desktop.Rect { return s.screen }
func (s *fakeScanner) RefreshRate(desktop.Handle) float64         { return s.rate }

func (s *fakeScanner) ObstacleRects(ignore []desktop.Handle, _ desktop.ObstaclePolicy) []desktop.Rect {
	s.scans++
	s.ignored = ignore
	return s.obstacles
}

type manualTimer struct {
	mu       sync.Mutex
	active   bool
	interval time.Duration
	fn       func()
	starts   int
}

func (t *manualTimer) Start(interval time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active, t.interval, t.fn = true, interval, fn
	t.starts++
}

func (t *manualTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
}

func (t *manualTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *manualTimer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

func (t *manualTimer) callback() func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fn
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func newFakeClock() *fakeClock               { return &fakeClock{t: time.Unix(1700000000, 0)} }

type delayed struct {
	d       time.Duration
	fn      func()
	stopped bool
}

type fakeAfter struct {
	calls []*delayed
}

func (a *fakeAfter) After(d time.Duration, fn func()) func() bool {
	c := &delayed{d: d, fn: fn}
	a.calls = append(a.calls, c)
	return func() bool {
		c.stopped = true
		return true
	}
}

// harness wires a bridge to fakes with friction and window collisions off
type harness struct {
	host    *fakeHost
	scanner *fakeScanner
	timer   *manualTimer
	clock   *fakeClock
	after   *fakeAfter
	bridge  *Bridge
}

func testConfig() config.Config {
	cfg := *config.DefaultConfig()
	cfg.General.AlwaysOnTop = false
	cfg.Physics.FrictionEnabled = false
	cfg.Physics.CollideWindows = false
	return cfg
}

func newHarness(host Host, fh *fakeHost, cfg config.Config, opts ...Option) *harness {
	h := &harness{
		host:    fh,
		scanner: &fakeScanner{screen: desktop.Rect{Width: 1000, Height: 500}, rate: 60},
		timer:   &manualTimer{},
		clock:   newFakeClock(),
		after:   &fakeAfter{},
	}
	opts = append([]Option{
		WithTimer(h.timer),
		WithClock(h.clock.Now),
		WithAfterFunc(h.after.After),
		WithLogger(logging.NewLoggerTo(io.Discard)),
		WithID("pet-test"),
	}, opts...)

	b, err := New(host, h.scanner, cfg, opts...)
	if err != nil {
		panic(err)
	}
	h.bridge = b
	return h
}

func newSimpleHarness(frame desktop.Rect, cfg config.Config, opts ...Option) *harness {
	fh := newFakeHost(frame)
	return newHarness(fh, fh, cfg, opts...)
}

// step advances the clock by d and ticks once
func (h *harness) step(d time.Duration) {
	h.clock.Advance(d)
	h.bridge.Tick()
}
