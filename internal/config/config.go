// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the environment-derived settings for one lab session.
type Config struct {
	// APIBaseURL is the base address of the request channel, ending at the
	// reactions/ prefix (e.g. http://localhost:8000/reactions/).
	APIBaseURL string

	// TransportURL is the WebSocket endpoint of the streaming channel.
	TransportURL string

	// CameraDevice is the capture device index handed to the camera layer.
	CameraDevice int

	// FrameInterval is the outbound frame cadence (~15 fps by default).
	FrameInterval time.Duration

	// PollInterval is the cadence of the completion-status fallback poll.
	// It doubles as the server-side session heartbeat, so it must stay
	// well under the backend's 15s heartbeat timeout.
	PollInterval time.Duration
}

// FromEnv builds a Config from environment variables, falling back to
// same-origin local defaults.
func FromEnv() Config {
	return Config{
		APIBaseURL:    getEnv("LABSTREAM_API_URL", "http://localhost:8000/reactions/"),
		TransportURL:  getEnv("LABSTREAM_WS_URL", "ws://localhost:8000/ws/lab/"),
		CameraDevice:  getEnvInt("LABSTREAM_CAMERA", 0),
		FrameInterval: getEnvDuration("LABSTREAM_FRAME_INTERVAL", 66*time.Millisecond),
		PollInterval:  getEnvDuration("LABSTREAM_POLL_INTERVAL", time.Second),
	}
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return v
}
