// Package audio plays short tones when a pet hits the screen edge or a
// window. Tones are synthesized with beep, so no sound assets ship.
package audio

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/opd-ai/go-deskpet/pkg/event"
	"github.com/opd-ai/go-deskpet/pkg/logging"
)

const (
	// SampleRate is used for every synthesized tone
	SampleRate = beep.SampleRate(44100)

	toneDuration = 40 * time.Millisecond
	// minGap stops a pet rattling in a corner from producing a buzz
	minGap = 60 * time.Millisecond

	lowFreq  = 220.0
	highFreq = 880.0
	// loudSpeed is the impact speed, in px/s, that plays the highest and
	// loudest tone
	loudSpeed = 2000.0
	// windowPitch lowers window impacts relative to screen edges
	windowPitch = 0.75
)

// InitSpeaker opens the default audio device and returns a play function for
// NewChime.
func InitSpeaker() (func(beep.Streamer), error) {
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	return func(s beep.Streamer) { speaker.Play(s) }, nil
}

// Chime turns contact events into tones
type Chime struct {
	mu     sync.Mutex
	play   func(beep.Streamer)
	now    func() time.Time
	last   time.Time
	muted  bool
	subs   []*event.Subscription
	logger *logging.Logger
}

// NewChime creates a chime that hands tones to play
func NewChime(play func(beep.Streamer), logger *logging.Logger) *Chime {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Chime{
		play:   play,
		now:    time.Now,
		logger: logger.With("component", "audio"),
	}
}

// Attach subscribes to bounce and window collision events on bus
func (c *Chime) Attach(bus *event.Bus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs,
		bus.Subscribe(event.Bounce, c.handle),
		bus.Subscribe(event.WindowCollision, c.handle),
	)
}

// Detach cancels every subscription made by Attach
func (c *Chime) Detach() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

// SetMuted silences the chime without detaching it
func (c *Chime) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
}

func (c *Chime) handle(e event.Event) {
	contact, ok := e.(*event.ContactEvent)
	if !ok {
		return
	}

	c.mu.Lock()
	now := c.now()
	if c.muted || c.play == nil || (!c.last.IsZero() && now.Sub(c.last) < minGap) {
		c.mu.Unlock()
		return
	}
	c.last = now
	c.mu.Unlock()

	pitch := 1.0
	if e.GetType() == event.WindowCollision {
		pitch = windowPitch
	}
	tone, err := Tone(SampleRate, contact.Speed, pitch)
	if err != nil {
		c.logger.Warn(context.Background(), "failed to synthesize tone", "error", err.Error())
		return
	}
	c.play(tone)
}

// Tone returns a short sine blip whose pitch and loudness rise with impact
// speed.
func Tone(rate beep.SampleRate, speed, pitch float64) (beep.Streamer, error) {
	k := math.Min(math.Max(speed/loudSpeed, 0), 1)
	freq := (lowFreq + k*(highFreq-lowFreq)) * pitch

	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, err
	}
	return &effects.Volume{
		Streamer: beep.Take(rate.N(toneDuration), sine),
		Base:     2,
		Volume:   -3 + 3*k,
	}, nil
}
