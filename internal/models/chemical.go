// internal/models/chemical.go
package models

// ChemicalType classifies a chemical for litmus purposes.
type ChemicalType string

const (
	TypeAcid    ChemicalType = "acid"
	TypeBase    ChemicalType = "base"
	TypeNeutral ChemicalType = "neutral"
)

// Chemical is one selectable substance from the lab catalog.
// The JSON shape matches the backend's chemicals/ payload, so a fetched
// catalog entry can be stored and reused without translation.
type Chemical struct {
	ID      string       `json:"id"`
	Label   string       `json:"label"`
	Formula string       `json:"formula"`
	Type    ChemicalType `json:"type"`
}
