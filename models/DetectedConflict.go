package models

import "gorm.io/gorm"

// DetectedConflict records one ingredient-pair conflict found during an
// analysis run. Rows are written in bulk at the end of the run and never
// mutated afterwards.
type DetectedConflict struct {
	gorm.Model
	AnalysisID       uint        `gorm:"not null;index" json:"analysis_id"`
	ProductAID       uint        `gorm:"not null" json:"product_a_id"`
	ProductBID       uint        `gorm:"not null" json:"product_b_id"`
	IngredientAID    uint        `gorm:"not null" json:"ingredient_a_id"`
	IngredientBID    uint        `gorm:"not null" json:"ingredient_b_id"`
	ProductA         *Product    `gorm:"foreignKey:ProductAID" json:"product_a,omitempty"`
	ProductB         *Product    `gorm:"foreignKey:ProductBID" json:"product_b,omitempty"`
	IngredientA      *Ingredient `gorm:"foreignKey:IngredientAID" json:"ingredient_a,omitempty"`
	IngredientB      *Ingredient `gorm:"foreignKey:IngredientBID" json:"ingredient_b,omitempty"`
	Severity         string      `gorm:"type:varchar(16);not null" json:"severity"`
	ConflictType     string      `gorm:"type:varchar(64)" json:"conflict_type"`
	Explanation      string      `gorm:"type:text" json:"explanation"`
	Recommendation   string      `gorm:"type:text" json:"recommendation"`
	TemporalConflict bool        `gorm:"not null;default:false" json:"temporal_conflict"`
}
