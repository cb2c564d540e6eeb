// Package desktop senses the host desktop: monitor geometry, refresh rate and
// the rectangles of other applications' windows. Native window-system access
// sits behind Backend; physics code only ever sees the Scanner capability,
// which never fails and degrades to safe defaults instead.
package desktop

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-deskpet/pkg/logging"
)

// Fallbacks used when the window system cannot answer.
const (
	DefaultRefreshRate = 60.0
)

// DefaultGeometry is the usable screen area assumed when no monitor is known
var DefaultGeometry = Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

// ErrUnsupported is returned by backends on platforms without a native implementation
var ErrUnsupported = errors.New("desktop: native window system not supported")

// Monitor describes a physical display and its usable work area.
type Monitor struct {
	Bounds      Rect
	WorkArea    Rect
	RefreshRate float64
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	Handle Handle
	Class  string
	Title  string
	Bounds Rect

	// Monitor hosting the window; nil means the primary monitor.
	Monitor *Monitor

	Visible   bool
	Minimized bool
	Maximized bool
	Tool      bool // utility, toolbar, dock and similar auxiliary windows
	Cloaked   bool // hidden by the compositor or on another virtual desktop
}

// ObstaclePolicy selects which kinds of windows are excluded from collision.
type ObstaclePolicy struct {
	IgnoreMaximized            bool
	IgnoreFullscreen           bool
	IgnoreBorderlessFullscreen bool
}

// Scanner is the capability the physics bridge consumes. Implementations
// must not block beyond a tick and must never fail.
type Scanner interface {
	// ScreenGeometry returns the usable area of the monitor hosting h
	ScreenGeometry(h Handle) Rect
	// RefreshRate returns the refresh rate in Hz of the monitor hosting h
	RefreshRate(h Handle) float64
	// ObstacleRects returns a fresh snapshot of collidable window rectangles
	ObstacleRects(ignore []Handle, policy ObstaclePolicy) []Rect
}

// Backend abstracts fallible window-system queries across platforms.
type Backend interface {
	PrimaryMonitor() (Monitor, error)
	MonitorFor(h Handle) (Monitor, error)
	Windows() ([]Window, error)
}

// BreakerSettings configures the circuit breaker guarding native queries.
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	MaxConsecutiveFails uint32
}

// DefaultBreakerSettings returns the breaker configuration used by the scanner
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             5 * time.Second,
		MaxConsecutiveFails: 5,
	}
}

// EnvironmentScanner adapts a Backend into a Scanner. Every native call runs
// through a circuit breaker so a broken window system is not hammered at
// refresh rate; failures and an open breaker yield defaults.
type EnvironmentScanner struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

var _ Scanner = (*EnvironmentScanner)(nil)

// NewEnvironmentScanner creates a scanner over backend. A nil backend always
// yields defaults.
func NewEnvironmentScanner(backend Backend, settings BreakerSettings, logger *logging.Logger) *EnvironmentScanner {
	if logger == nil {
		logger = logging.NewLogger()
	}

	maxFails := settings.MaxConsecutiveFails
	if maxFails == 0 {
		maxFails = 1
	}

	breakerSettings := gobreaker.Settings{
		Name:        "desktop-scanner",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &EnvironmentScanner{
		backend: backend,
		breaker: gobreaker.NewCircuitBreaker(breakerSettings),
		logger:  logger,
	}
}

// State returns the current state of the circuit breaker.
func (s *EnvironmentScanner) State() gobreaker.State {
	return s.breaker.State()
}

// Counts returns the breaker's failure/success counters.
func (s *EnvironmentScanner) Counts() gobreaker.Counts {
	return s.breaker.Counts()
}

// ScreenGeometry returns the work area of the monitor hosting h, falling back
// to the primary monitor and then to DefaultGeometry.
func (s *EnvironmentScanner) ScreenGeometry(h Handle) Rect {
	mon, ok := s.monitor(h)
	if !ok || mon.WorkArea.Empty() {
		return DefaultGeometry
	}
	return mon.WorkArea
}

// RefreshRate returns the refresh rate of the monitor hosting h. Unknown or
// implausible rates (<= 1 Hz) report DefaultRefreshRate.
func (s *EnvironmentScanner) RefreshRate(h Handle) float64 {
	mon, ok := s.monitor(h)
	if !ok || mon.RefreshRate <= 1 {
		return DefaultRefreshRate
	}
	return mon.RefreshRate
}

// ObstacleRects enumerates the window system and filters it down to
// collidable rectangles. The result is never cached.
func (s *EnvironmentScanner) ObstacleRects(ignore []Handle, policy ObstaclePolicy) []Rect {
	if s.backend == nil {
		return nil
	}

	windows, err := call(s, "windows", s.backend.Windows)
	if err != nil {
		return nil
	}

	primary, err := call(s, "primary_monitor", s.backend.PrimaryMonitor)
	if err != nil {
		primary = Monitor{Bounds: DefaultGeometry, WorkArea: DefaultGeometry}
	}

	return FilterObstacles(windows, primary, ignore, policy)
}

func (s *EnvironmentScanner) monitor(h Handle) (Monitor, bool) {
	if s.backend == nil {
		return Monitor{}, false
	}
	if h != 0 {
		mon, err := call(s, "monitor_for", func() (Monitor, error) {
			return s.backend.MonitorFor(h)
		})
		if err == nil {
			return mon, true
		}
	}
	mon, err := call(s, "primary_monitor", s.backend.PrimaryMonitor)
	if err != nil {
		return Monitor{}, false
	}
	return mon, true
}

// call runs one backend query through the breaker
func call[T any](s *EnvironmentScanner, op string, fn func() (T, error)) (T, error) {
	var zero T
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		s.logger.Debug(context.Background(), "desktop query failed",
			"op", op,
			"error", err.Error(),
			"state", s.breaker.State().String(),
		)
		return zero, err
	}
	return result.(T), nil
}
