// Package health reports whether the desktop pet process is doing its job:
// the frame loop is running, pets are ticking and the window scanner is
// reachable. Checks are served over HTTP as liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// readinessTimeout bounds a single readiness probe
const readinessTimeout = 5 * time.Second

// HealthCheck defines the interface for individual health checks.
// Each component can implement this interface to provide its health status.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks for the application.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a new health check with the health checker.
// If a check with the same name already exists, it will be replaced.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth executes all registered health checks and returns the aggregated status.
// The overall status is "healthy" only if all individual checks pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}

	// Execute all health checks
	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			status.Checks[name] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	return status
}

// LivenessHandler answers 200 OK as long as the process serves requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{"status": "alive"}
	json.NewEncoder(w).Encode(response)
}

// ReadinessHandler runs every check and answers 200 OK when all pass, or
// 503 Service Unavailable with the per-check report otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")

	if health.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(health)
}

// Handler returns a mux serving /healthz and /readyz
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", hc.LivenessHandler)
	mux.HandleFunc("/readyz", hc.ReadinessHandler)
	return mux
}

// DesktopHealthCheck fails while the desktop frame loop is stopped.
type DesktopHealthCheck struct {
	running func() bool
}

// NewDesktopHealthCheck creates a check backed by running
func NewDesktopHealthCheck(running func() bool) *DesktopHealthCheck {
	return &DesktopHealthCheck{running: running}
}

// Name returns the name of this health check.
func (d *DesktopHealthCheck) Name() string {
	return "desktop"
}

// Check verifies that the frame loop is running.
func (d *DesktopHealthCheck) Check(ctx context.Context) error {
	if !d.running() {
		return fmt.Errorf("desktop frame loop is not running")
	}
	return nil
}

// ScannerHealthCheck fails while the scanner's circuit breaker is open. The
// pets keep moving on default geometry, but collisions with real windows
// are lost.
type ScannerHealthCheck struct {
	state func() gobreaker.State
}

// NewScannerHealthCheck creates a check backed by the breaker state
func NewScannerHealthCheck(state func() gobreaker.State) *ScannerHealthCheck {
	return &ScannerHealthCheck{state: state}
}

// Name returns the name of this health check.
func (s *ScannerHealthCheck) Name() string {
	return "scanner"
}

// Check verifies that window-system queries are reaching the backend.
func (s *ScannerHealthCheck) Check(ctx context.Context) error {
	if st := s.state(); st == gobreaker.StateOpen {
		return fmt.Errorf("window scanner circuit is %s, using default geometry", st)
	}
	return nil
}

// TickHealthCheck fails when an enabled pet has not ticked recently.
type TickHealthCheck struct {
	staleAfter time.Duration
	lastTicks  func() map[string]time.Time
	now        func() time.Time
}

// NewTickHealthCheck creates a check over lastTicks, which returns the last
// tick time of every pet with physics enabled. A zero time means the pet has
// not ticked yet and is measured from the first check that saw it.
func NewTickHealthCheck(staleAfter time.Duration, lastTicks func() map[string]time.Time) *TickHealthCheck {
	return &TickHealthCheck{
		staleAfter: staleAfter,
		lastTicks:  lastTicks,
		now:        time.Now,
	}
}

// Name returns the name of this health check.
func (t *TickHealthCheck) Name() string {
	return "physics_tick"
}

// Check verifies that no enabled pet has stalled.
func (t *TickHealthCheck) Check(ctx context.Context) error {
	if t.staleAfter <= 0 {
		return nil
	}
	now := t.now()

	var stale []string
	for pet, last := range t.lastTicks() {
		if last.IsZero() {
			continue
		}
		if now.Sub(last) > t.staleAfter {
			stale = append(stale, pet)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	sort.Strings(stale)
	return fmt.Errorf("no physics tick within %s for: %s", t.staleAfter, strings.Join(stale, ", "))
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage. A nil
// getMemoryUsage reads the Go heap.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = CurrentMemoryMB
	}
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// CurrentMemoryMB returns the allocated Go heap in MB
func CurrentMemoryMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
