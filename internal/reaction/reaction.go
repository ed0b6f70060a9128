// internal/reaction/reaction.go

// Package reaction holds the litmus reaction rules and the session's
// display-state derivation. The display state is computed, never stored:
// it follows from the current selection, the indicator mode, and whether
// an outcome has been committed.
package reaction

import (
	"fmt"

	"github.com/gestured/labstream/internal/models"
)

// WillReact reports whether this litmus + chemical pairing causes a color
// change: blue litmus reacts to acids, red litmus reacts to bases.
func WillReact(mode models.IndicatorMode, chem models.ChemicalType) bool {
	switch {
	case mode == models.IndicatorBlueLitmus && chem == models.TypeAcid:
		return true
	case mode == models.IndicatorRedLitmus && chem == models.TypeBase:
		return true
	default:
		return false
	}
}

// Hint is the pre-reaction explanation shown once both the chemical and
// the indicator mode are known.
type Hint struct {
	Reacts  bool
	Message string
}

// Explain covers all six indicator × chemical-type combinations.
func Explain(mode models.IndicatorMode, chem models.ChemicalType) Hint {
	switch {
	case mode == models.IndicatorBlueLitmus && chem == models.TypeAcid:
		return Hint{true, "Blue litmus paper turns red in the presence of an acid. Pour over the paper to trigger the change."}
	case mode == models.IndicatorRedLitmus && chem == models.TypeBase:
		return Hint{true, "Red litmus paper turns blue in the presence of a base. Pour over the paper to trigger the change."}
	case mode == models.IndicatorBlueLitmus && chem == models.TypeBase:
		return Hint{false, "Blue litmus paper stays blue in a base; it only responds to acids."}
	case mode == models.IndicatorRedLitmus && chem == models.TypeAcid:
		return Hint{false, "Red litmus paper stays red in an acid; it only responds to bases."}
	case mode == models.IndicatorBlueLitmus && chem == models.TypeNeutral:
		return Hint{false, "Neutral solutions do not change blue litmus paper; no color change will occur."}
	default:
		return Hint{false, "Neutral solutions do not change red litmus paper; no color change will occur."}
	}
}

// RevealMessage is the verdict banner for a committed outcome.
func RevealMessage(o models.Outcome) string {
	if o.Reacted {
		switch o.Indicator {
		case models.IndicatorRedLitmus:
			return "Red litmus turns BLUE in presence of a Base!"
		case models.IndicatorBlueLitmus:
			return "Blue litmus turns RED in presence of an Acid!"
		}
		return "Reaction complete!"
	}
	if o.Chemical != nil {
		return fmt.Sprintf("No color change: %s does not react with this paper.", o.Chemical.Label)
	}
	return "No color change occurred."
}
