// internal/display/display.go

// Package display renders inbound processed frames. The policy is
// latest-frame-wins: each frame replaces whatever was shown before, with
// no buffering or reordering.
package display

// Discard is a sink that drops every frame. Used in headless runs and
// tests where nothing should be drawn.
type Discard struct{}

func (Discard) Render([]byte) {}
