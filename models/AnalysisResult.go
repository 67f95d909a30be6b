package models

import "gorm.io/gorm"

// Risk tiers derived from the safety score.
const (
	RiskTierSafe     = "safe"
	RiskTierCaution  = "caution"
	RiskTierHighRisk = "high_risk"
)

// AnalysisResult is the persisted outcome of one analysis run. Payload holds
// the serialized numeric scores plus any advisory commentary; Recommendations
// is a newline-joined ordered list. The row is immutable except for prepending
// an advisory summary line later.
type AnalysisResult struct {
	gorm.Model
	PublicID        string             `gorm:"uniqueIndex;not null;type:varchar(36)" json:"public_id"`
	RoutineID       uint               `gorm:"not null;index" json:"routine_id"`
	UserID          uint               `gorm:"not null;index" json:"user_id"`
	RiskTier        string             `gorm:"type:varchar(16);not null" json:"risk_tier"`
	SummaryGrade    string             `gorm:"type:varchar(4);not null" json:"summary_grade"`
	SafetyScore     float64            `gorm:"not null" json:"safety_score"`
	RiskScore       float64            `gorm:"not null" json:"risk_score"`
	ConflictCount   int                `gorm:"not null;default:0" json:"conflict_count"`
	Payload         string             `gorm:"type:text" json:"payload"`
	Recommendations string             `gorm:"type:text" json:"recommendations"`
	Conflicts       []DetectedConflict `gorm:"foreignKey:AnalysisID" json:"conflicts"`
}
