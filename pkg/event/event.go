// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Pet and simulation event types
const (
	PetAdded        Type = "pet_added"
	PetRemoved      Type = "pet_removed"
	PhysicsEnabled  Type = "physics_enabled"
	PhysicsDisabled Type = "physics_disabled"
	Bounce          Type = "bounce"
	WindowCollision Type = "window_collision"
	Teleported      Type = "teleported"
	DragReleased    Type = "drag_released"
	Slept           Type = "slept"
	DesktopStarted  Type = "desktop_started"
	DesktopStopped  Type = "desktop_stopped"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			kept := make([]subscriber, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			b.handlers[eventType] = append(kept, subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	if b == nil || event == nil {
		return
	}

	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// Specific event implementations

// PetEvent carries the identity of the pet an event concerns
type PetEvent struct {
	BaseEvent
	PetID string
}

// NewPetEvent creates a new pet event
func NewPetEvent(eventType Type, source interface{}, petID string) *PetEvent {
	return &PetEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		PetID: petID,
	}
}

// ContactEvent reports edge or window contacts made during one tick
type ContactEvent struct {
	BaseEvent
	PetID    string
	Contacts int     // contacts this tick
	Total    int     // contacts since telemetry was last reset
	Speed    float64 // px/s before the contact
}

// NewContactEvent creates a new contact event
func NewContactEvent(eventType Type, source interface{}, petID string, contacts, total int, speed float64) *ContactEvent {
	return &ContactEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		PetID:    petID,
		Contacts: contacts,
		Total:    total,
		Speed:    speed,
	}
}

// MotionEvent reports a position resync or a velocity handoff
type MotionEvent struct {
	BaseEvent
	PetID  string
	X, Y   float64
	VX, VY float64
}

// NewMotionEvent creates a new motion event
func NewMotionEvent(eventType Type, source interface{}, petID string, x, y, vx, vy float64) *MotionEvent {
	return &MotionEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		PetID: petID,
		X:     x,
		Y:     y,
		VX:    vx,
		VY:    vy,
	}
}
