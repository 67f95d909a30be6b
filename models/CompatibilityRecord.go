package models

import "gorm.io/gorm"

// Canonical severity vocabulary. Advisory-sourced and seed data is normalized
// onto these four levels before storage.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// CompatibilityRecord captures a known pairwise relationship between two
// ingredients. The pair is unordered; writers store the lower ingredient id in
// slot A, and the unique pair index keeps at most one record per unordered
// pair. Lookups still check both orderings so reads never depend on the
// write-side slot convention.
type CompatibilityRecord struct {
	gorm.Model
	IngredientAID   uint        `gorm:"not null;uniqueIndex:idx_compat_pair" json:"ingredient_a_id"`
	IngredientBID   uint        `gorm:"not null;uniqueIndex:idx_compat_pair" json:"ingredient_b_id"`
	IngredientA     *Ingredient `gorm:"foreignKey:IngredientAID" json:"ingredient_a,omitempty"`
	IngredientB     *Ingredient `gorm:"foreignKey:IngredientBID" json:"ingredient_b,omitempty"`
	ConflictType    string      `gorm:"type:varchar(64)" json:"conflict_type"`
	Severity        string      `gorm:"type:varchar(16);not null;default:low" json:"severity"`
	Recommendation  string      `gorm:"type:text" json:"recommendation"`
	ScientificBasis string      `gorm:"type:text" json:"scientific_basis"`
	Source          string      `gorm:"type:varchar(32);default:seed" json:"source"`
}
