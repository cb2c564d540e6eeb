package desktop

import "sync"

// ScriptedBackend is an in-memory Backend whose answers are set by the
// caller. It backs tests and headless runs.
type ScriptedBackend struct {
	mu       sync.RWMutex
	primary  Monitor
	monitors map[Handle]Monitor
	windows  []Window
	err      error
	calls    int
}

var _ Backend = (*ScriptedBackend)(nil)

// NewScriptedBackend creates a backend with a single primary monitor
func NewScriptedBackend(primary Monitor) *ScriptedBackend {
	return &ScriptedBackend{
		primary:  primary,
		monitors: make(map[Handle]Monitor),
	}
}

// SetMonitor assigns the monitor reported for h
func (b *ScriptedBackend) SetMonitor(h Handle, mon Monitor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.monitors[h] = mon
}

// SetWindows replaces the enumeration snapshot
func (b *ScriptedBackend) SetWindows(windows ...Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = append([]Window(nil), windows...)
}

// SetError makes every query fail with err until cleared with nil
func (b *ScriptedBackend) SetError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// Calls returns how many queries reached the backend
func (b *ScriptedBackend) Calls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls
}

// PrimaryMonitor implements Backend
func (b *ScriptedBackend) PrimaryMonitor() (Monitor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return Monitor{}, b.err
	}
	return b.primary, nil
}

// MonitorFor implements Backend. Unknown handles report the primary monitor.
func (b *ScriptedBackend) MonitorFor(h Handle) (Monitor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return Monitor{}, b.err
	}
	if mon, ok := b.monitors[h]; ok {
		return mon, nil
	}
	return b.primary, nil
}

// Windows implements Backend
func (b *ScriptedBackend) Windows() ([]Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return append([]Window(nil), b.windows...), nil
}
