// internal/capture/capture.go

// Package capture owns the camera device for the duration of a session.
// Acquisition reserves exclusive hardware access; both failure modes are
// terminal for the session, so there is no retry logic here.
package capture

import "errors"

var (
	// ErrPermissionDenied means the device exists but could not be opened
	// for reading, typically because camera access was refused.
	ErrPermissionDenied = errors.New("capture: camera permission denied")

	// ErrDeviceUnavailable means no usable capture device was found.
	ErrDeviceUnavailable = errors.New("capture: camera device unavailable")
)

// Device is a camera handle that can rasterize its current view into a
// compressed still image. Close is idempotent; a released device keeps
// returning errors from Snapshot but never panics.
type Device interface {
	// Snapshot grabs the current frame and returns it encoded as a JPEG at
	// the device's fixed quality setting.
	Snapshot() ([]byte, error)

	// Close releases the hardware. Safe to call more than once.
	Close() error
}
