// pkg/engine/desktop.go
package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-deskpet/pkg/bridge"
	"github.com/opd-ai/go-deskpet/pkg/config"
	"github.com/opd-ai/go-deskpet/pkg/desktop"
	"github.com/opd-ai/go-deskpet/pkg/event"
	"github.com/opd-ai/go-deskpet/pkg/logging"
	"github.com/opd-ai/go-deskpet/pkg/validation"
)

// maxFrameDelta caps the time a single Update may advance the pet timers
const maxFrameDelta = 0.1

var (
	// ErrPetExists is returned when adding a pet under a name already in use
	ErrPetExists = errors.New("engine: pet already exists")
	// ErrPetNotFound is returned for operations on an unknown pet
	ErrPetNotFound = errors.New("engine: pet not found")
)

// Pet is one simulated window tracked by the desktop
type Pet struct {
	ecs.BasicEntity
	Name   string
	Bridge *bridge.Bridge
	Timer  *FrameTimer
}

// Desktop owns every pet on screen and advances them from a single frame
// loop. Pets share one scanner, one event bus and one configuration.
type Desktop struct {
	Config      *config.Config
	World       *ecs.World
	EventBus    *event.Bus
	Scanner     desktop.Scanner
	Running     bool
	CurrentTick uint64
	LastUpdate  time.Time

	mu     sync.RWMutex
	pets   map[string]*Pet
	system *PhysicsSystem
	logger *logging.Logger
	ctx    context.Context
	now    func() time.Time
	opts   []bridge.Option
}

// DesktopOption configures a Desktop
type DesktopOption func(*Desktop)

// WithDesktopLogger sets the logger shared by the desktop and its bridges
func WithDesktopLogger(l *logging.Logger) DesktopOption {
	return func(d *Desktop) { d.logger = l }
}

// WithDesktopClock replaces time.Now for frame deltas
func WithDesktopClock(now func() time.Time) DesktopOption {
	return func(d *Desktop) { d.now = now }
}

// WithBridgeOptions appends options passed to every bridge the desktop
// creates
func WithBridgeOptions(opts ...bridge.Option) DesktopOption {
	return func(d *Desktop) { d.opts = append(d.opts, opts...) }
}

// NewDesktop creates a stopped desktop. A nil config uses the defaults.
func NewDesktop(cfg *config.Config, scanner desktop.Scanner, opts ...DesktopOption) *Desktop {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Desktop{
		Config:   cfg,
		World:    &ecs.World{},
		EventBus: event.NewEventBus(),
		Scanner:  scanner,
		pets:     make(map[string]*Pet),
		system:   NewPhysicsSystem(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.NewLogger()
	}
	if d.Scanner == nil {
		d.Scanner = desktop.NewEnvironmentScanner(nil, cfg.Scanner.BreakerSettings(), d.logger)
	}
	d.ctx = logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())
	d.World.AddSystem(d.system)
	d.LastUpdate = d.now()
	return d
}

// Start begins advancing pets on Update
func (d *Desktop) Start() {
	d.mu.Lock()
	d.Running = true
	d.LastUpdate = d.now()
	d.mu.Unlock()

	d.logger.Info(d.ctx, "desktop started")
	d.EventBus.Publish(&event.BaseEvent{
		EventType: event.DesktopStarted,
		Source:    d,
	})
}

// Stop halts the frame loop. Pets keep their state and resume on Start.
func (d *Desktop) Stop() {
	d.mu.Lock()
	d.Running = false
	d.mu.Unlock()

	d.logger.Info(d.ctx, "desktop stopped")
	d.EventBus.Publish(&event.BaseEvent{
		EventType: event.DesktopStopped,
		Source:    d,
	})
}

// IsRunning reports whether Update advances pets
func (d *Desktop) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.Running
}

// AddPet attaches a physics bridge to host. Physics starts enabled only if
// the general config says so.
func (d *Desktop) AddPet(name string, host bridge.Host) (*Pet, error) {
	name, err := validation.ValidatePetName(name)
	if err != nil {
		return nil, logging.WrapError(err, "invalid pet name")
	}

	d.mu.Lock()
	if _, ok := d.pets[name]; ok {
		d.mu.Unlock()
		return nil, ErrPetExists
	}
	cfg := *d.Config
	d.mu.Unlock()

	timer := &FrameTimer{}
	opts := append([]bridge.Option{
		bridge.WithTimer(timer),
		bridge.WithEventBus(d.EventBus),
		bridge.WithLogger(d.logger),
		bridge.WithID(name),
	}, d.opts...)

	b, err := bridge.New(host, d.Scanner, cfg, opts...)
	if err != nil {
		return nil, logging.WrapError(err, "failed to attach pet", "pet", name)
	}
	b.SetEnabled(cfg.General.PhysicsEnabled)

	pet := &Pet{
		BasicEntity: ecs.NewBasic(),
		Name:        name,
		Bridge:      b,
		Timer:       timer,
	}

	d.mu.Lock()
	if _, ok := d.pets[name]; ok {
		d.mu.Unlock()
		b.Close()
		return nil, ErrPetExists
	}
	d.pets[name] = pet
	d.system.Add(&pet.BasicEntity, timer)
	d.mu.Unlock()

	d.logger.Info(d.ctx, "pet added", "pet", name, "entity", pet.ID())
	d.EventBus.Publish(event.NewPetEvent(event.PetAdded, d, name))
	return pet, nil
}

// RemovePet detaches and closes the named pet
func (d *Desktop) RemovePet(name string) error {
	d.mu.Lock()
	pet, ok := d.pets[name]
	if !ok {
		d.mu.Unlock()
		return ErrPetNotFound
	}
	delete(d.pets, name)
	d.mu.Unlock()

	d.World.RemoveEntity(pet.BasicEntity)
	pet.Bridge.Close()

	d.logger.Info(d.ctx, "pet removed", "pet", name)
	d.EventBus.Publish(event.NewPetEvent(event.PetRemoved, d, name))
	return nil
}

// Pet returns the named pet
func (d *Desktop) Pet(name string) (*Pet, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pet, ok := d.pets[name]
	return pet, ok
}

// Pets returns all pets ordered by name
func (d *Desktop) Pets() []*Pet {
	d.mu.RLock()
	pets := make([]*Pet, 0, len(d.pets))
	for _, pet := range d.pets {
		pets = append(pets, pet)
	}
	d.mu.RUnlock()

	sort.Slice(pets, func(i, j int) bool { return pets[i].Name < pets[j].Name })
	return pets
}

// SetPhysicsEnabled toggles physics on every pet and records the choice in
// the general config so pets added later follow it.
func (d *Desktop) SetPhysicsEnabled(enabled bool) {
	d.mu.Lock()
	d.Config.General.PhysicsEnabled = enabled
	d.mu.Unlock()

	for _, pet := range d.Pets() {
		pet.Bridge.SetEnabled(enabled)
	}

	eventType := event.PhysicsDisabled
	if enabled {
		eventType = event.PhysicsEnabled
	}
	d.EventBus.Publish(&event.BaseEvent{EventType: eventType, Source: d})
}

// Reconfigure replaces the shared configuration and pushes it to every pet
func (d *Desktop) Reconfigure(cfg config.Config) {
	d.mu.Lock()
	*d.Config = cfg
	d.mu.Unlock()

	pets := d.Pets()
	for _, pet := range pets {
		pet.Bridge.Reconfigure(cfg)
	}
	d.logger.Info(d.ctx, "desktop reconfigured", "pets", len(pets))
}

// Update advances every pet timer by the time since the previous call.
// It is a no-op while stopped.
func (d *Desktop) Update() {
	d.mu.Lock()
	if !d.Running {
		d.mu.Unlock()
		return
	}
	deltaTime := d.calculateDeltaTime()
	d.CurrentTick++
	d.mu.Unlock()

	d.World.Update(float32(deltaTime))
}

// LastTicks returns the last tick time of every pet with physics enabled
func (d *Desktop) LastTicks() map[string]time.Time {
	pets := d.Pets()
	ticks := make(map[string]time.Time, len(pets))
	for _, pet := range pets {
		stats := pet.Bridge.Snapshot()
		if stats.Enabled {
			ticks[pet.Name] = stats.LastTick
		}
	}
	return ticks
}

// System returns the physics system registered with the world
func (d *Desktop) System() *PhysicsSystem {
	return d.system
}

// Close removes every pet
func (d *Desktop) Close() {
	for _, pet := range d.Pets() {
		if err := d.RemovePet(pet.Name); err != nil {
			d.logger.Warn(d.ctx, "pet already removed", "pet", pet.Name)
		}
	}
}

// calculateDeltaTime calculates the time since the last update and caps it.
func (d *Desktop) calculateDeltaTime() float64 {
	now := d.now()
	deltaTime := now.Sub(d.LastUpdate).Seconds()
	d.LastUpdate = now

	if deltaTime > maxFrameDelta {
		deltaTime = maxFrameDelta
	}
	if deltaTime < 0 {
		deltaTime = 0
	}
	return deltaTime
}
