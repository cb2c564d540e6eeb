//go:build linux

package desktop

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// stickyDesktop is the EWMH desktop index of windows shown on every desktop
const stickyDesktop = 0xFFFFFFFF

// auxiliaryTypes are EWMH window types that never act as obstacles
var auxiliaryTypes = map[string]struct{}{
	"_NET_WM_WINDOW_TYPE_DESKTOP":       {},
	"_NET_WM_WINDOW_TYPE_DOCK":          {},
	"_NET_WM_WINDOW_TYPE_TOOLBAR":       {},
	"_NET_WM_WINDOW_TYPE_MENU":          {},
	"_NET_WM_WINDOW_TYPE_UTILITY":       {},
	"_NET_WM_WINDOW_TYPE_SPLASH":        {},
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU": {},
	"_NET_WM_WINDOW_TYPE_POPUP_MENU":    {},
	"_NET_WM_WINDOW_TYPE_TOOLTIP":       {},
	"_NET_WM_WINDOW_TYPE_NOTIFICATION":  {},
}

// X11Backend reads the desktop through EWMH hints, Xinerama heads and RandR.
type X11Backend struct {
	xu          *xgbutil.XUtil
	hasRandr    bool
	hasXinerama bool
}

var _ Backend = (*X11Backend)(nil)

// NewNativeBackend connects to the X server named by $DISPLAY
func NewNativeBackend() (Backend, error) {
	b, err := NewX11Backend()
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewX11Backend connects to the X server named by $DISPLAY
func NewX11Backend() (*X11Backend, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	return &X11Backend{
		xu:          xu,
		hasRandr:    randr.Init(xu.Conn()) == nil,
		hasXinerama: xinerama.Init(xu.Conn()) == nil,
	}, nil
}

// Close releases the X connection
func (b *X11Backend) Close() error {
	b.xu.Conn().Close()
	return nil
}

// PrimaryMonitor implements Backend. The first Xinerama head is primary.
func (b *X11Backend) PrimaryMonitor() (Monitor, error) {
	heads, err := b.heads()
	if err != nil {
		return Monitor{}, err
	}
	return b.monitorFromHead(heads[0]), nil
}

// MonitorFor implements Backend
func (b *X11Backend) MonitorFor(h Handle) (Monitor, error) {
	heads, err := b.heads()
	if err != nil {
		return Monitor{}, err
	}
	bounds, err := b.frameGeometry(xproto.Window(h))
	if err != nil {
		return Monitor{}, err
	}
	return b.monitorFromHead(headFor(heads, bounds)), nil
}

// Windows implements Backend. Windows on another virtual desktop are
// reported as cloaked.
func (b *X11Backend) Windows() ([]Window, error) {
	clients, err := ewmh.ClientListStackingGet(b.xu)
	if err != nil {
		clients, err = ewmh.ClientListGet(b.xu)
		if err != nil {
			return nil, fmt.Errorf("read client list: %w", err)
		}
	}

	heads, err := b.heads()
	if err != nil {
		return nil, err
	}

	current, curErr := ewmh.CurrentDesktopGet(b.xu)
	monitors := make(map[Rect]Monitor, len(heads))

	windows := make([]Window, 0, len(clients))
	for _, win := range clients {
		bounds, err := b.frameGeometry(win)
		if err != nil {
			// destroyed between listing and query
			continue
		}

		w := Window{
			Handle: Handle(win),
			Bounds: bounds,
		}
		if cls, err := icccm.WmClassGet(b.xu, win); err == nil && cls != nil {
			w.Class = cls.Class
		}
		if name, err := ewmh.WmNameGet(b.xu, win); err == nil {
			w.Title = name
		}
		if attrs, err := xproto.GetWindowAttributes(b.xu.Conn(), win).Reply(); err == nil {
			w.Visible = attrs.MapState == xproto.MapStateViewable
		}

		if states, err := ewmh.WmStateGet(b.xu, win); err == nil {
			var vert, horz bool
			for _, s := range states {
				switch s {
				case "_NET_WM_STATE_HIDDEN":
					w.Minimized = true
				case "_NET_WM_STATE_MAXIMIZED_VERT":
					vert = true
				case "_NET_WM_STATE_MAXIMIZED_HORZ":
					horz = true
				}
			}
			w.Maximized = vert && horz
		}
		if types, err := ewmh.WmWindowTypeGet(b.xu, win); err == nil {
			for _, t := range types {
				if _, aux := auxiliaryTypes[t]; aux {
					w.Tool = true
					break
				}
			}
		}
		if curErr == nil {
			if desk, err := ewmh.WmDesktopGet(b.xu, win); err == nil {
				w.Cloaked = desk != stickyDesktop && desk != current
			}
		}

		head := headFor(heads, bounds)
		mon, ok := monitors[head]
		if !ok {
			mon = b.monitorFromHead(head)
			monitors[head] = mon
		}
		w.Monitor = &mon
		windows = append(windows, w)
	}
	return windows, nil
}

// heads lists the physical monitors, falling back to the root window
func (b *X11Backend) heads() ([]Rect, error) {
	if b.hasXinerama {
		reply, err := xinerama.QueryScreens(b.xu.Conn()).Reply()
		if err == nil && len(reply.ScreenInfo) > 0 {
			heads := make([]Rect, 0, len(reply.ScreenInfo))
			for _, info := range reply.ScreenInfo {
				heads = append(heads, Rect{
					X:      int(info.XOrg),
					Y:      int(info.YOrg),
					Width:  int(info.Width),
					Height: int(info.Height),
				})
			}
			return heads, nil
		}
	}

	screen := b.xu.Screen()
	if screen == nil {
		return nil, fmt.Errorf("no X screen")
	}
	return []Rect{{Width: int(screen.WidthInPixels), Height: int(screen.HeightInPixels)}}, nil
}

func (b *X11Backend) monitorFromHead(head Rect) Monitor {
	mon := Monitor{
		Bounds:      head,
		WorkArea:    head,
		RefreshRate: b.refreshRate(),
	}

	areas, err := ewmh.WorkareaGet(b.xu)
	if err != nil || len(areas) == 0 {
		return mon
	}
	idx := 0
	if current, err := ewmh.CurrentDesktopGet(b.xu); err == nil && int(current) < len(areas) {
		idx = int(current)
	}
	area := areas[idx]
	work := head.Intersect(Rect{
		X:      area.X,
		Y:      area.Y,
		Width:  int(area.Width),
		Height: int(area.Height),
	})
	if !work.Empty() {
		mon.WorkArea = work
	}
	return mon
}

func (b *X11Backend) refreshRate() float64 {
	if !b.hasRandr {
		return 0
	}
	info, err := randr.GetScreenInfo(b.xu.Conn(), b.xu.RootWin()).Reply()
	if err != nil {
		return 0
	}
	return float64(info.Rate)
}

// frameGeometry returns the window rectangle including decorations
func (b *X11Backend) frameGeometry(win xproto.Window) (Rect, error) {
	geom, err := xwindow.New(b.xu, win).DecorGeometry()
	if err != nil {
		return Rect{}, fmt.Errorf("geometry of window %#x: %w", uint32(win), err)
	}
	return Rect{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}, nil
}
