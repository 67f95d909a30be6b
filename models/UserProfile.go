package models

import "gorm.io/gorm"

// UserProfile carries the skin context handed to the advisory model.
// Sensitivities and Goals are comma-separated free text.
type UserProfile struct {
	gorm.Model
	UserID        uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	SkinType      string `gorm:"type:varchar(32);default:normal" json:"skin_type"`
	Sensitivities string `gorm:"type:text" json:"sensitivities"`
	Goals         string `gorm:"type:text" json:"goals"`
}
