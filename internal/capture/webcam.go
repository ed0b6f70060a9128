// internal/capture/webcam.go
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

const (
	frameWidth  = 640
	frameHeight = 480

	// jpegQuality is deliberately low to bound per-frame size for the
	// streaming transport. Not configurable at runtime.
	jpegQuality = 55
)

// Webcam is the gocv-backed Device implementation.
type Webcam struct {
	mu     sync.Mutex
	cam    *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
}

// Open acquires exclusive access to the capture device with the given
// index and fixes its resolution. Failures map onto the package's error
// taxonomy and are terminal for the session.
func Open(deviceID int) (*Webcam, error) {
	cam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrDeviceUnavailable, deviceID, err)
	}
	if !cam.IsOpened() {
		cam.Close()
		return nil, fmt.Errorf("%w: device %d", ErrPermissionDenied, deviceID)
	}

	cam.Set(gocv.VideoCaptureFrameWidth, frameWidth)
	cam.Set(gocv.VideoCaptureFrameHeight, frameHeight)

	return &Webcam{cam: cam, frame: gocv.NewMat()}, nil
}

// Snapshot rasterizes the current camera view into a JPEG.
func (w *Webcam) Snapshot() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrDeviceUnavailable
	}
	if ok := w.cam.Read(&w.frame); !ok || w.frame.Empty() {
		return nil, errors.New("capture: failed to read frame")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.frame,
		[]int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("capture: jpeg encode: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device. Idempotent.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.frame.Close()
	return w.cam.Close()
}
