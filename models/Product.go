package models

import (
	"strings"

	"gorm.io/gorm"
)

// Usage timing values for a product within a routine.
const (
	UsageAM        = "AM"
	UsagePM        = "PM"
	UsageBoth      = "both"
	UsageAlternate = "alternate"
	UsageWeekly    = "weekly"
)

// Product belongs to a Routine and keeps the raw ingredient-list text alongside
// the parsed usage timing and its position in the routine.
type Product struct {
	gorm.Model
	RoutineID      uint                `gorm:"not null;index" json:"routine_id"`
	Name           string              `gorm:"not null" json:"name"`
	Brand          string              `json:"brand"`
	IngredientText string              `gorm:"type:text;not null" json:"ingredient_text"`
	UsageTime      string              `gorm:"type:varchar(16);not null;default:both" json:"usage_time"`
	OrderInRoutine int                 `gorm:"not null;default:0" json:"order_in_routine"`
	Ingredients    []ProductIngredient `gorm:"foreignKey:ProductID" json:"ingredients"`
}

// ValidUsageTime reports whether the value is one of the known usage timings.
func ValidUsageTime(value string) bool {
	switch value {
	case UsageAM, UsagePM, UsageBoth, UsageAlternate, UsageWeekly:
		return true
	default:
		return false
	}
}

// NormalizeUsageTime folds case variants of "both" onto the canonical literal
// and passes the AM/PM style values through. Unknown values fall back to
// "both", the most conservative window for temporal-conflict detection.
func NormalizeUsageTime(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.EqualFold(trimmed, UsageBoth) {
		return UsageBoth
	}
	if ValidUsageTime(trimmed) {
		return trimmed
	}
	switch strings.ToUpper(trimmed) {
	case UsageAM:
		return UsageAM
	case UsagePM:
		return UsagePM
	}
	switch strings.ToLower(trimmed) {
	case UsageAlternate:
		return UsageAlternate
	case UsageWeekly:
		return UsageWeekly
	}
	return UsageBoth
}
