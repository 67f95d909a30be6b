package models

import "gorm.io/gorm"

// IngredientProperties is the 1:1 property sheet for an Ingredient. Rows are
// created with safe defaults when the ingredient is first seen and may later be
// enriched by an external property-extraction pass.
type IngredientProperties struct {
	gorm.Model
	IngredientID     uint     `gorm:"uniqueIndex;not null" json:"ingredient_id"`
	PHMin            *float64 `json:"ph_min,omitempty"`
	PHMax            *float64 `json:"ph_max,omitempty"`
	IrritancyScore   int      `gorm:"not null;default:0" json:"irritancy_score"`
	ComedogenicScore int      `gorm:"not null;default:0" json:"comedogenic_score"`
	Harmful          bool     `gorm:"not null;default:false" json:"harmful"`
}
