// internal/models/indicator.go
package models

// IndicatorMode identifies which litmus paper variant is active for the
// session. The zero value means the mode is not known yet.
type IndicatorMode string

const (
	IndicatorUnset      IndicatorMode = ""
	IndicatorRedLitmus  IndicatorMode = "red_litmus"
	IndicatorBlueLitmus IndicatorMode = "blue_litmus"
)

// Known reports whether the mode has been established for the session.
func (m IndicatorMode) Known() bool {
	return m == IndicatorRedLitmus || m == IndicatorBlueLitmus
}
