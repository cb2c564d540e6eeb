//go:build windows

package desktop

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	gwlExStyle              = -20
	wsExToolWindow          = 0x00000080
	swShowMaximized         = 3
	dwmwaCloaked            = 14
	monitorDefaultToNear    = 2
	monitorDefaultToPrimary = 1
	vRefresh                = 116
	classNameLen            = 256
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")
	dwmapi = windows.NewLazySystemDLL("dwmapi.dll")

	procIsIconic              = user32.NewProc("IsIconic")
	procGetWindowPlacement    = user32.NewProc("GetWindowPlacement")
	procGetWindowLongW        = user32.NewProc("GetWindowLongW")
	procGetWindowRect         = user32.NewProc("GetWindowRect")
	procMonitorFromWindow     = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW       = user32.NewProc("GetMonitorInfoW")
	procGetDC                 = user32.NewProc("GetDC")
	procReleaseDC             = user32.NewProc("ReleaseDC")
	procGetDeviceCaps         = gdi32.NewProc("GetDeviceCaps")
	procDwmGetWindowAttribute = dwmapi.NewProc("DwmGetWindowAttribute")
)

type winPoint struct {
	X, Y int32
}

type windowPlacement struct {
	Length         uint32
	Flags          uint32
	ShowCmd        uint32
	MinPosition    winPoint
	MaxPosition    winPoint
	NormalPosition windows.Rect
}

type monitorInfo struct {
	CbSize  uint32
	Monitor windows.Rect
	Work    windows.Rect
	Flags   uint32
}

// EnumWindows callbacks are a finite runtime resource, so one callback is
// created for the process and fed through enumTarget.
var (
	enumOnce     sync.Once
	enumCallback uintptr
	enumMu       sync.Mutex
	enumTarget   []windows.HWND
)

// Win32Backend enumerates top-level windows through user32 and dwmapi.
type Win32Backend struct{}

var _ Backend = (*Win32Backend)(nil)

// NewNativeBackend returns the Win32 backend
func NewNativeBackend() (Backend, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32: %w", err)
	}
	return &Win32Backend{}, nil
}

// PrimaryMonitor implements Backend
func (b *Win32Backend) PrimaryMonitor() (Monitor, error) {
	hmon, _, _ := procMonitorFromWindow.Call(0, monitorDefaultToPrimary)
	return monitorFromHandle(hmon, 0)
}

// MonitorFor implements Backend
func (b *Win32Backend) MonitorFor(h Handle) (Monitor, error) {
	hmon, _, _ := procMonitorFromWindow.Call(uintptr(h), monitorDefaultToNear)
	return monitorFromHandle(hmon, windows.HWND(h))
}

// Windows implements Backend
func (b *Win32Backend) Windows() ([]Window, error) {
	handles, err := enumerate()
	if err != nil {
		return nil, err
	}

	result := make([]Window, 0, len(handles))
	for _, hwnd := range handles {
		bounds, ok := windowRect(hwnd)
		if !ok {
			continue
		}

		w := Window{
			Handle:    Handle(hwnd),
			Bounds:    bounds,
			Class:     className(hwnd),
			Visible:   windows.IsWindowVisible(hwnd),
			Minimized: isIconic(hwnd),
			Maximized: isMaximized(hwnd),
			Tool:      isToolWindow(hwnd),
			Cloaked:   isCloaked(hwnd),
		}

		hmon, _, _ := procMonitorFromWindow.Call(uintptr(hwnd), monitorDefaultToNear)
		if mon, err := monitorFromHandle(hmon, hwnd); err == nil {
			w.Monitor = &mon
		}
		result = append(result, w)
	}
	return result, nil
}

func enumerate() ([]windows.HWND, error) {
	enumOnce.Do(func() {
		enumCallback = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
			enumTarget = append(enumTarget, hwnd)
			return 1
		})
	})

	enumMu.Lock()
	defer enumMu.Unlock()

	enumTarget = enumTarget[:0]
	if err := windows.EnumWindows(enumCallback, nil); err != nil {
		return nil, fmt.Errorf("enumerate windows: %w", err)
	}
	return append([]windows.HWND(nil), enumTarget...), nil
}

func monitorFromHandle(hmon uintptr, hwnd windows.HWND) (Monitor, error) {
	if hmon == 0 {
		return Monitor{}, fmt.Errorf("no monitor for window %#x", uintptr(hwnd))
	}
	mi := monitorInfo{}
	mi.CbSize = uint32(unsafe.Sizeof(mi))
	ok, _, err := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&mi)))
	if ok == 0 {
		return Monitor{}, fmt.Errorf("GetMonitorInfoW: %w", err)
	}
	return Monitor{
		Bounds:      fromWinRect(mi.Monitor),
		WorkArea:    fromWinRect(mi.Work),
		RefreshRate: refreshRate(hwnd),
	}, nil
}

func refreshRate(hwnd windows.HWND) float64 {
	hdc, _, _ := procGetDC.Call(uintptr(hwnd))
	if hdc == 0 {
		return 0
	}
	defer procReleaseDC.Call(uintptr(hwnd), hdc)
	rate, _, _ := procGetDeviceCaps.Call(hdc, vRefresh)
	return float64(int32(rate))
}

func windowRect(hwnd windows.HWND) (Rect, bool) {
	var r windows.Rect
	ok, _, _ := procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return Rect{}, false
	}
	return fromWinRect(r), true
}

func className(hwnd windows.HWND) string {
	buf := make([]uint16, classNameLen)
	n, err := windows.GetClassName(hwnd, &buf[0], int32(len(buf)))
	if err != nil || n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func isIconic(hwnd windows.HWND) bool {
	r, _, _ := procIsIconic.Call(uintptr(hwnd))
	return r != 0
}

func isMaximized(hwnd windows.HWND) bool {
	wp := windowPlacement{}
	wp.Length = uint32(unsafe.Sizeof(wp))
	ok, _, _ := procGetWindowPlacement.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&wp)))
	return ok != 0 && wp.ShowCmd == swShowMaximized
}

func isToolWindow(hwnd windows.HWND) bool {
	index := int32(gwlExStyle)
	style, _, _ := procGetWindowLongW.Call(uintptr(hwnd), uintptr(index))
	return uint32(style)&wsExToolWindow != 0
}

func isCloaked(hwnd windows.HWND) bool {
	if procDwmGetWindowAttribute.Find() != nil {
		return false
	}
	var cloaked uint32
	hr, _, _ := procDwmGetWindowAttribute.Call(
		uintptr(hwnd),
		dwmwaCloaked,
		uintptr(unsafe.Pointer(&cloaked)),
		unsafe.Sizeof(cloaked),
	)
	return hr == 0 && cloaked != 0
}

func fromWinRect(r windows.Rect) Rect {
	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}
