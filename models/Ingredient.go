package models

import (
	"gorm.io/gorm"
)

// Ingredient categories.
const (
	CategoryActive       = "active"
	CategoryBase         = "base"
	CategoryPreservative = "preservative"
	CategoryFragrance    = "fragrance"
)

// Ingredient is identified by its canonical INCI name. Records are created on
// first sighting and only removed by an explicit administrative purge.
type Ingredient struct {
	gorm.Model
	INCIName    string                `gorm:"uniqueIndex;not null" json:"inci_name"`
	CommonNames []CommonName          `gorm:"foreignKey:IngredientID" json:"common_names"`
	Function    string                `gorm:"type:text" json:"function"`
	Category    string                `gorm:"type:varchar(32);not null;default:base" json:"category"`
	IsActive    bool                  `gorm:"not null;default:false" json:"is_active"`
	Properties  *IngredientProperties `gorm:"foreignKey:IngredientID" json:"properties,omitempty"`
}

// CommonName holds an alternative or marketing name for an Ingredient.
type CommonName struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	IngredientID uint
}
