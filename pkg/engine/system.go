// pkg/engine/system.go
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/EngoEngine/ecs"
)

// PhysicsSystem advances the frame timer of every pet entity. It is safe to
// add and remove entities while the world updates.
type PhysicsSystem struct {
	mu      sync.Mutex
	entries map[uint64]*physicsEntry
	fired   uint64
}

type physicsEntry struct {
	basic *ecs.BasicEntity
	timer *FrameTimer
}

// NewPhysicsSystem creates an empty system
func NewPhysicsSystem() *PhysicsSystem {
	return &PhysicsSystem{entries: make(map[uint64]*physicsEntry)}
}

// Add registers an entity with its timer
func (s *PhysicsSystem) Add(basic *ecs.BasicEntity, timer *FrameTimer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[basic.ID()] = &physicsEntry{basic: basic, timer: timer}
}

// Remove satisfies the ecs.System interface
func (s *PhysicsSystem) Remove(basic ecs.BasicEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, basic.ID())
}

// Update satisfies the ecs.System interface. Timers fire in entity order
// outside the lock, since a tick may add or remove pets through event
// handlers.
func (s *PhysicsSystem) Update(dt float32) {
	s.mu.Lock()
	timers := make([]*physicsEntry, 0, len(s.entries))
	for _, e := range s.entries {
		timers = append(timers, e)
	}
	s.mu.Unlock()

	sort.Slice(timers, func(i, j int) bool { return timers[i].basic.ID() < timers[j].basic.ID() })

	step := time.Duration(float64(dt) * float64(time.Second))
	var fired uint64
	for _, e := range timers {
		if e.timer.Advance(step) {
			fired++
		}
	}

	s.mu.Lock()
	s.fired += fired
	s.mu.Unlock()
}

// Priority runs physics before any other system added to the world
func (s *PhysicsSystem) Priority() int {
	return 100
}

// Len returns the number of registered entities
func (s *PhysicsSystem) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Fired returns the total number of timer callbacks run
func (s *PhysicsSystem) Fired() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
