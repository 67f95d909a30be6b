package models

import "gorm.io/gorm"

// ProductIngredient joins a product to an ingredient and preserves the original
// ordering of the product's ingredient list.
type ProductIngredient struct {
	gorm.Model
	ProductID    uint        `gorm:"not null;index" json:"product_id"`
	IngredientID uint        `gorm:"not null;index" json:"ingredient_id"`
	Position     int         `gorm:"not null;default:0" json:"position"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
