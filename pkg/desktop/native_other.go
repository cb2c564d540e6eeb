//go:build !linux && !windows

package desktop

// NewNativeBackend reports ErrUnsupported; the scanner then runs on defaults.
func NewNativeBackend() (Backend, error) {
	return nil, ErrUnsupported
}
