// internal/models/outcome.go
package models

// Outcome is the snapshot recorded when a reaction test completes.
// Both the push path and the fallback poll produce one of these; whichever
// arrives first is kept for the rest of the session.
type Outcome struct {
	Chemical  *Chemical     `json:"chemical,omitempty"`
	Indicator IndicatorMode `json:"reaction_type,omitempty"`
	Reacted   bool          `json:"reacted"`
}

// ConnectionStatus tracks the lifecycle of the streaming transport. It is
// derived from transport events and drives the status indicator only.
type ConnectionStatus int

const (
	StatusConnecting ConnectionStatus = iota
	StatusLive
	StatusError
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusLive:
		return "live"
	default:
		return "error"
	}
}
