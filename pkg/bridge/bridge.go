// Package bridge couples a physics.Engine to a host window. Each tick it
// reads the window and the desktop, advances the simulation and moves the
// window to the simulated position.
package bridge

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opd-ai/go-deskpet/pkg/config"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/event"
	"github.com/opd-ai/go-deskpet/pkg/logging"
	"github.com/opd-ai/go-deskpet/pkg/physics"
)

const (
	// maxTickDelta bounds the impulse a single frame hitch can produce
	maxTickDelta = 50 * time.Millisecond
	// dragSmoothing is the weight of the newest drag velocity sample
	dragSmoothing = 0.4
	// teleportThreshold is the manhattan distance an unexplained window move
	// must exceed before the engine is resynced to it
	teleportThreshold = 1
)

// ErrNilHost is returned by New without a host window
var ErrNilHost = errors.New("bridge: nil host")

// Stats is a point-in-time copy of the bridge session state
type Stats struct {
	Position             physics.Vector2D
	Velocity             physics.Vector2D
	Acceleration         float64
	BounceCount          int
	WindowCollisionCount int
	FallDistance         float64
	Enabled              bool
	Asleep               bool
	Ticks                uint64
	LastTick             time.Time
}

// Bridge drives one pet. All state is guarded by mu, so ticks from a timer
// goroutine never overlap host calls such as SetEnabled.
type Bridge struct {
	mu sync.Mutex

	id      string
	ctx     context.Context
	host    Host
	scanner desktop.Scanner
	cfg     config.Config
	engine  *physics.Engine

	timer  Timer
	gen    uint64
	now    func() time.Time
	after  func(time.Duration, func()) func() bool
	bus    *event.Bus
	logger *logging.Logger
	stats  StatsSink

	enabled       bool
	lastPos       desktop.Point
	lastTime      time.Time
	lastWindowPos desktop.Point
	lastDragging  bool
	wasMoving     bool
	asleep        bool
	stillTicks    int
	fallDistance  float64
	ticks         uint64
	lastTick      time.Time

	disableToken uint64
	forceToken   uint64
	forceRestore *forces
	pending      map[uint64]func() bool
	pendingSeq   uint64

	outbox []event.Event
}

// Option configures a Bridge
type Option func(*Bridge)

// WithTimer replaces the default TickerTimer, e.g. with a frame-driven timer
func WithTimer(t Timer) Option {
	return func(b *Bridge) { b.timer = t }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// WithAfterFunc replaces time.AfterFunc for delayed actions. The returned
// function cancels the callback.
func WithAfterFunc(after func(time.Duration, func()) func() bool) Option {
	return func(b *Bridge) { b.after = after }
}

// WithEventBus publishes contact and motion events to bus
func WithEventBus(bus *event.Bus) Option {
	return func(b *Bridge) { b.bus = bus }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithStatsSink overrides the stats sink discovered on the host
func WithStatsSink(s StatsSink) Option {
	return func(b *Bridge) { b.stats = s }
}

// WithID sets the session ID instead of generating one
func WithID(id string) Option {
	return func(b *Bridge) { b.id = id }
}

// New creates an enabled bridge with its timer armed. The engine starts at
// the sprite's current position.
func New(host Host, scanner desktop.Scanner, cfg config.Config, opts ...Option) (*Bridge, error) {
	if host == nil {
		return nil, ErrNilHost
	}

	b := &Bridge{
		host:    host,
		scanner: scanner,
		cfg:     cfg,
		engine:  physics.NewEngine(cfg.Physics.EngineConfig()),
		now:     time.Now,
		after: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
		enabled: true,
		pending: make(map[uint64]func() bool),
	}
	if s, ok := host.(StatsSink); ok {
		b.stats = s
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.id == "" {
		b.id = uuid.NewString()
	}
	if b.timer == nil {
		b.timer = NewTickerTimer()
	}
	if b.logger == nil {
		b.logger = logging.NewLogger()
	}
	if b.scanner == nil {
		b.scanner = desktop.NewEnvironmentScanner(nil, desktop.DefaultBreakerSettings(), b.logger)
	}
	b.logger = b.logger.With("component", "bridge")
	b.ctx = logging.WithCorrelationID(context.Background(), b.id)

	sprite := b.spriteRect()
	b.engine.SetPosition(float64(sprite.X), float64(sprite.Y))
	b.lastPos = sprite.TopLeft()
	b.lastWindowPos = host.FrameGeometry().TopLeft()
	b.lastTime = b.now()

	b.mu.Lock()
	b.arm()
	b.mu.Unlock()

	b.logger.Info(b.ctx, "physics bridge started", "interval", b.timer.Interval().String())
	return b, nil
}

// ID returns the session ID
func (b *Bridge) ID() string {
	return b.id
}

// Tick runs one simulation step. Hosts with their own frame loop may call it
// directly instead of relying on the timer.
func (b *Bridge) Tick() {
	b.do(b.tick)
}

// Enabled reports whether the simulation is running
func (b *Bridge) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// SetEnabled starts or stops the simulation. Enabling rearms the timer and
// resets telemetry; disabling stops the timer and resets telemetry but keeps
// position and velocity.
func (b *Bridge) SetEnabled(enabled bool) {
	b.do(func() { b.setEnabled(enabled) })
}

func (b *Bridge) setEnabled(enabled bool) {
	b.disableToken++
	if enabled == b.enabled && enabled == b.timer.Active() {
		return
	}
	b.enabled = enabled
	b.resetMotionStats()

	if enabled {
		b.lastTime = b.now()
		b.stillTicks = 0
		b.asleep = false
		if !b.timer.Active() {
			b.arm()
		}
		b.emit(event.NewPetEvent(event.PhysicsEnabled, b, b.id))
		b.logger.Info(b.ctx, "physics enabled")
		return
	}

	b.timer.Stop()
	b.gen++
	b.emit(event.NewPetEvent(event.PhysicsDisabled, b, b.id))
	b.logger.Info(b.ctx, "physics disabled")
}

// Reconfigure swaps in a new configuration, reapplies the engine parameters
// and rearms the timer at the new interval.
func (b *Bridge) Reconfigure(cfg config.Config) {
	b.do(func() {
		b.cfg = cfg
		b.engine.Config = cfg.Physics.EngineConfig()
		b.forceRestore = nil
		b.forceToken++
		if b.enabled {
			b.timer.Stop()
			b.arm()
		}
		b.logger.Info(b.ctx, "physics reconfigured", "interval", b.timer.Interval().String())
	})
}

// Config returns the active configuration
func (b *Bridge) Config() config.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// Snapshot returns the current session state
func (b *Bridge) Snapshot() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Position:             b.engine.Position,
		Velocity:             b.engine.Velocity,
		Acceleration:         b.engine.LastAccel,
		BounceCount:          b.engine.BounceCount,
		WindowCollisionCount: b.engine.WindowCollisionCount,
		FallDistance:         b.fallDistance,
		Enabled:              b.enabled,
		Asleep:               b.asleep,
		Ticks:                b.ticks,
		LastTick:             b.lastTick,
	}
}

// Close stops the timer and cancels pending delayed actions
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timer.Stop()
	b.gen++
	b.enabled = false
	for id, stop := range b.pending {
		stop()
		delete(b.pending, id)
	}
}

// do runs fn under the lock, then publishes the events it queued. Handlers
// therefore may call back into the bridge.
func (b *Bridge) do(fn func()) {
	b.mu.Lock()
	fn()
	out := b.outbox
	b.outbox = nil
	b.mu.Unlock()

	for _, e := range out {
		b.bus.Publish(e)
	}
}

func (b *Bridge) emit(e event.Event) {
	if b.bus != nil {
		b.outbox = append(b.outbox, e)
	}
}

// arm starts the timer at the configured interval. Callbacks from an earlier
// schedule are discarded by generation.
func (b *Bridge) arm() {
	b.gen++
	gen := b.gen
	b.timer.Start(b.interval(), func() {
		b.do(func() {
			if gen == b.gen {
				b.tick()
			}
		})
	})
}

func (b *Bridge) interval() time.Duration {
	rate := b.cfg.Physics.RefreshRate
	if rate <= 0 {
		rate = b.scanner.RefreshRate(b.host.Handle())
	}
	rate = math.Max(1, rate)
	ms := int(1000.0 / rate)
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

func (b *Bridge) spriteRect() desktop.Rect {
	if s, ok := b.host.(SpriteRecter); ok {
		if r, ok := s.SpriteCollisionRect(); ok && !r.Empty() {
			return r
		}
	}
	return b.host.FrameGeometry()
}

func (b *Bridge) tick() {
	if !b.enabled {
		return
	}

	sprite := b.spriteRect()
	frame := b.host.FrameGeometry()
	windowPos := frame.TopLeft()
	offset := sprite.TopLeft().Sub(windowPos)
	current := sprite.TopLeft()

	now := b.now()
	elapsed := now.Sub(b.lastTime)
	if elapsed <= 0 {
		return
	}
	if elapsed > maxTickDelta {
		elapsed = maxTickDelta
	}
	dt := elapsed.Seconds()
	b.ticks++
	b.lastTick = now

	dragging := b.host.Dragging()
	if !dragging && !b.lastDragging && windowPos.Sub(b.lastWindowPos).ManhattanLength() > teleportThreshold {
		b.engine.SetPosition(float64(current.X), float64(current.Y))
		b.lastPos = current
		b.stillTicks = 0
		b.asleep = false
		b.emit(event.NewMotionEvent(event.Teleported, b, b.id,
			b.engine.Position.X, b.engine.Position.Y, b.engine.Velocity.X, b.engine.Velocity.Y))
		b.logger.Debug(b.ctx, "window moved externally", "x", current.X, "y", current.Y)
	}
	b.lastWindowPos = windowPos

	if dragging {
		b.dragTick(current, windowPos, now, dt)
		return
	}

	if b.lastDragging {
		b.engine.SetPosition(float64(current.X), float64(current.Y))
		b.lastPos = current
		b.lastWindowPos = windowPos
		b.emit(event.NewMotionEvent(event.DragReleased, b, b.id,
			b.engine.Position.X, b.engine.Position.Y, b.engine.Velocity.X, b.engine.Velocity.Y))
		b.logger.Debug(b.ctx, "drag released",
			"vx", b.engine.Velocity.X, "vy", b.engine.Velocity.Y)
	}
	b.lastDragging = false

	b.engine.Step(dt)

	sleepSpeed := math.Max(0, b.cfg.Physics.SleepSpeedThreshold)
	sleepFrames := b.cfg.Physics.SleepStillFrames
	if sleepFrames < 1 {
		sleepFrames = 1
	}
	moving := math.Abs(b.engine.Velocity.X) > sleepSpeed || math.Abs(b.engine.Velocity.Y) > sleepSpeed
	if b.wasMoving && !moving {
		b.resetMotionStats()
	}
	b.wasMoving = moving

	b.resolveContacts(sprite, offset, sleepSpeed)

	newSprite := desktop.Point{X: int(b.engine.Position.X), Y: int(b.engine.Position.Y)}
	target := newSprite.Sub(offset)

	if dy := newSprite.Y - b.lastPos.Y; dy > 0 {
		b.fallDistance += float64(dy)
	}

	if math.Abs(b.engine.Velocity.X) < sleepSpeed && math.Abs(b.engine.Velocity.Y) < sleepSpeed {
		b.stillTicks++
	} else {
		b.stillTicks = 0
		b.asleep = false
	}
	if b.stillTicks >= sleepFrames {
		b.engine.SetVelocity(0, 0)
		b.engine.SetPosition(float64(newSprite.X), float64(newSprite.Y))
		b.wasMoving = false
		b.resetMotionStats()
		if !b.asleep {
			b.asleep = true
			b.emit(event.NewPetEvent(event.Slept, b, b.id))
			b.logger.Debug(b.ctx, "pet asleep", "x", newSprite.X, "y", newSprite.Y)
		}
	}

	if target != windowPos {
		b.move(target)
		b.lastWindowPos = target
	}
	if b.cfg.General.AlwaysOnTop {
		if k, ok := b.host.(TopmostKeeper); ok {
			k.ReassertTopmost()
		}
	}

	b.lastPos = newSprite
	b.lastTime = now
	b.syncStats(false)
}

func (b *Bridge) dragTick(current, windowPos desktop.Point, now time.Time, dt float64) {
	raw := toVector(current).Sub(toVector(b.lastPos)).Scale(1 / dt)
	v := b.engine.Velocity.Lerp(raw, dragSmoothing).Scale(b.cfg.Physics.DragVelocityMultiplier)
	b.engine.SetVelocity(v.X, v.Y)
	b.engine.SetPosition(float64(current.X), float64(current.Y))

	b.lastPos = current
	b.lastTime = now
	b.lastWindowPos = windowPos
	b.lastDragging = true
	b.stillTicks = 0
	b.asleep = false
	b.resetMotionStats()
}

func toVector(p desktop.Point) physics.Vector2D {
	return physics.Vector2D{X: float64(p.X), Y: float64(p.Y)}
}

// resolveContacts clamps the sprite into this tick's bounds, then pushes it
// out of obstacle windows, reporting impacts faster than sleepSpeed.
func (b *Bridge) resolveContacts(sprite desktop.Rect, offset desktop.Point, sleepSpeed float64) {
	w, h := float64(sprite.Width), float64(sprite.Height)
	speed := b.engine.Velocity.Length()
	bounces := b.engine.BounceCount
	collisions := b.engine.WindowCollisionCount

	b.engine.ResolveBounds(b.bounds(sprite, offset), w, h)
	edgeContacts := b.engine.BounceCount - bounces

	if b.cfg.Physics.CollideWindows {
		ignore := []desktop.Handle{b.host.Handle()}
		obstacles := b.scanner.ObstacleRects(ignore, b.cfg.Physics.ObstaclePolicy())
		if len(obstacles) > 0 {
			rects := make([]physics.Rect, len(obstacles))
			for i, r := range obstacles {
				rects[i] = r.Physics()
			}
			b.engine.ResolveRectCollisions(rects, w, h)
		}
	}
	windowContacts := b.engine.WindowCollisionCount - collisions

	if speed <= sleepSpeed {
		return
	}
	if edgeContacts > 0 {
		b.emit(event.NewContactEvent(event.Bounce, b, b.id, edgeContacts, b.engine.BounceCount, speed))
	}
	if windowContacts > 0 {
		b.emit(event.NewContactEvent(event.WindowCollision, b, b.id, windowContacts, b.engine.WindowCollisionCount, speed))
	}
}

// bounds returns the region the sprite's top-left may occupy. With an
// overlay attached the window must also keep the overlay on screen.
func (b *Bridge) bounds(sprite desktop.Rect, offset desktop.Point) physics.Rect {
	screen := b.scanner.ScreenGeometry(b.host.Handle())
	if pad := b.cfg.Physics.ScreenPadding; pad != 0 {
		screen = screen.Inset(pad)
	}

	var left, right int
	overlay := desktop.Rect{}
	if o, ok := b.host.(OverlayProvider); ok {
		overlay = o.OverlayGeometry()
	}
	if !overlay.Empty() {
		left = screen.Left() + offset.X - overlay.X
		right = screen.Right() - overlay.Width - overlay.X + offset.X + sprite.Width
	} else {
		left = screen.Left() + offset.X
		right = screen.Right() + offset.X
	}

	top := screen.Top()
	width := right - left
	if width < 1 {
		width = 1
	}
	height := screen.Bottom() - top
	if height < 1 {
		height = 1
	}
	return physics.NewRect(float64(left), float64(top), float64(width), float64(height))
}

func (b *Bridge) move(target desktop.Point) {
	if b.cfg.General.AlwaysOnTop {
		if m, ok := b.host.(TopmostMover); ok && m.MoveTopmost(target.X, target.Y) {
			return
		}
	}
	b.host.Move(target.X, target.Y)
}

func (b *Bridge) resetMotionStats() {
	b.engine.ResetCounters()
	b.fallDistance = 0
	b.wasMoving = false
	b.syncStats(true)
}

func (b *Bridge) syncStats(reset bool) {
	if b.stats == nil {
		return
	}
	accel := b.engine.LastAccel
	if reset {
		accel = 0
	}
	b.stats.SetStat(StatAcceleration, accel)
	b.stats.SetStat(StatBounceCount, float64(b.engine.BounceCount))
	b.stats.SetStat(StatFallDistance, b.fallDistance)
	b.stats.SetStat(StatWindowCollisionCount, float64(b.engine.WindowCollisionCount))
}
