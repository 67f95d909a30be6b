package models

import "gorm.io/gorm"

// Routine is a named collection of products belonging to a user. One routine is
// created per analysis request.
type Routine struct {
	gorm.Model
	PublicID string    `gorm:"uniqueIndex;not null;type:varchar(36)" json:"public_id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	Name     string    `gorm:"not null" json:"name"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`
	Products []Product `gorm:"foreignKey:RoutineID" json:"products"`
}
