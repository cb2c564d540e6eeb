package desktop

// Heuristics for deciding which windows a user perceives as solid.
const (
	// EdgeTolerance is the slack, in pixels, when matching a window against
	// a monitor or work area.
	EdgeTolerance = 2
	// CoverageRatio is the monitor-area fraction above which a window is
	// treated as borderless fullscreen.
	CoverageRatio = 0.95
)

// shellClasses are desktop-shell surfaces that are never obstacles.
var shellClasses = map[string]struct{}{
	"Progman":                  {},
	"WorkerW":                  {},
	"Shell_TrayWnd":            {},
	"Shell_SecondaryTrayWnd":   {},
	"NotifyIconOverflowWindow": {},
	"Fences":                   {},
	"FencesMainWindow":         {},
	"FencesMenuWindow":         {},
}

// FilterObstacles reduces an enumeration snapshot to the rectangles the
// sprite should collide with. primary supplies the reference work area and
// the monitor for windows whose own monitor is unknown.
func FilterObstacles(windows []Window, primary Monitor, ignore []Handle, policy ObstaclePolicy) []Rect {
	ignored := make(map[Handle]struct{}, len(ignore))
	for _, h := range ignore {
		if h != 0 {
			ignored[h] = struct{}{}
		}
	}

	var rects []Rect
	for _, w := range windows {
		if _, skip := ignored[w.Handle]; skip {
			continue
		}
		if isObstacle(w, primary, policy) {
			rects = append(rects, w.Bounds)
		}
	}
	return rects
}

func isObstacle(w Window, primary Monitor, policy ObstaclePolicy) bool {
	if !w.Visible || w.Minimized || w.Tool || w.Cloaked {
		return false
	}
	if policy.IgnoreMaximized && w.Maximized {
		return false
	}
	if _, shell := shellClasses[w.Class]; shell {
		return false
	}
	if w.Bounds.Empty() || !w.Bounds.Intersects(primary.WorkArea) {
		return false
	}

	mon := primary
	if w.Monitor != nil {
		mon = *w.Monitor
	}

	ignoreFull := policy.IgnoreFullscreen || policy.IgnoreBorderlessFullscreen
	if ignoreFull && w.Bounds.Matches(mon.Bounds, EdgeTolerance) {
		return false
	}
	if policy.IgnoreMaximized && w.Bounds.Matches(mon.WorkArea, EdgeTolerance) {
		return false
	}
	if ignoreFull || policy.IgnoreMaximized {
		if coverage(w.Bounds, mon.Bounds) >= CoverageRatio || coverage(w.Bounds, mon.WorkArea) >= CoverageRatio {
			return false
		}
	}
	return true
}

func coverage(r, of Rect) float64 {
	return float64(max(1, r.Area())) / float64(max(1, of.Area()))
}
