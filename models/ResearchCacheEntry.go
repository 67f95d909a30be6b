package models

import (
	"time"

	"gorm.io/gorm"
)

// ResearchCacheEntry stores one advisory research result per ingredient pair.
// PairKey is a deterministic hash of the sorted ingredient-id pair; expired
// rows are evicted lazily on the next lookup.
type ResearchCacheEntry struct {
	gorm.Model
	PairKey    string    `gorm:"uniqueIndex;not null;type:varchar(16)" json:"pair_key"`
	Response   string    `gorm:"type:text" json:"response"`
	Confidence float64   `gorm:"not null;default:0" json:"confidence"`
	Citations  string    `gorm:"type:text" json:"citations"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}
