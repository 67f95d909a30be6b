package models

import "gorm.io/gorm"

// User represents an application account whose routines are analyzed.
type User struct {
	gorm.Model
	Email   string       `gorm:"uniqueIndex;not null" json:"email"`
	Name    string       `json:"name"`
	Profile *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
