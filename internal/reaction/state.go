// internal/reaction/state.go
package reaction

import "github.com/gestured/labstream/internal/models"

// DisplayState is the mutually exclusive view state of the session.
type DisplayState int

const (
	// StateIdle: nothing to explain yet.
	StateIdle DisplayState = iota
	// StateHint: selection and indicator known, awaiting the reaction.
	StateHint
	// StateRevealed: an outcome was committed; terminal for the session.
	StateRevealed
)

func (s DisplayState) String() string {
	switch s {
	case StateHint:
		return "hint"
	case StateRevealed:
		return "revealed"
	default:
		return "idle"
	}
}

// State derives the display state from the current selection, indicator
// mode, and outcome cell. Exactly one state is active at any time.
func State(selection *models.Chemical, mode models.IndicatorMode, cell *Cell) DisplayState {
	if _, ok := cell.Get(); ok {
		return StateRevealed
	}
	if selection != nil && mode.Known() {
		return StateHint
	}
	return StateIdle
}
