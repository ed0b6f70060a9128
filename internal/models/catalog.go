// internal/models/catalog.go
package models

// DefaultCatalog mirrors the backend's canonical chemical catalog. It is
// the fallback used when the chemicals/ fetch fails, so the hint panel can
// still classify a selection while the request channel is unhealthy.
var DefaultCatalog = []Chemical{
	{ID: "HCl", Label: "Hydrochloric Acid", Formula: "HCl", Type: TypeAcid},
	{ID: "H2SO4", Label: "Sulfuric Acid", Formula: "H₂SO₄", Type: TypeAcid},
	{ID: "HNO3", Label: "Nitric Acid", Formula: "HNO₃", Type: TypeAcid},
	{ID: "CitricAcid", Label: "Citric Acid", Formula: "C₆H₈O₇", Type: TypeAcid},
	{ID: "AceticAcid", Label: "Acetic Acid", Formula: "CH₃COOH", Type: TypeAcid},
	{ID: "NaOH", Label: "Sodium Hydroxide", Formula: "NaOH", Type: TypeBase},
	{ID: "KOH", Label: "Potassium Hydroxide", Formula: "KOH", Type: TypeBase},
	{ID: "NH3", Label: "Ammonia Solution", Formula: "NH₃", Type: TypeBase},
	{ID: "CaOH2", Label: "Calcium Hydroxide", Formula: "Ca(OH)₂", Type: TypeBase},
	{ID: "NaHCO3", Label: "Baking Soda", Formula: "NaHCO₃", Type: TypeBase},
	{ID: "Water", Label: "Distilled Water", Formula: "H₂O", Type: TypeNeutral},
	{ID: "NaClSol", Label: "Saline Solution", Formula: "NaCl(aq)", Type: TypeNeutral},
	{ID: "SugarSol", Label: "Sugar Solution", Formula: "C₁₂H₂₂O₁₁(aq)", Type: TypeNeutral},
}

// FindChemical looks an ID up in the given catalog. Returns nil if absent.
func FindChemical(catalog []Chemical, id string) *Chemical {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i]
		}
	}
	return nil
}
