// internal/display/window.go
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// Window draws processed frames into a gocv HighGUI window. A frame that
// fails to decode is dropped and the next one is decoded normally.
type Window struct {
	mu     sync.Mutex
	win    *gocv.Window
	closed bool
}

// NewWindow opens the display window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Render decodes and draws one frame, replacing the previous one.
func (w *Window) Render(frame []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		return
	}
	defer mat.Close()

	w.win.IMShow(mat)
	w.win.WaitKey(1)
}

// Close tears the window down. Idempotent.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.win.Close()
}
