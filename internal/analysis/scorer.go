package analysis

import (
	"cosmatiqa/models"
)

// Severity deductions applied when deriving safety from the rule-based
// conflict list.
const (
	deductionHigh   = 3.0
	deductionMedium = 1.5
	deductionLow    = 0.5
)

// Assessment is the scored outcome of an analysis run. Safety and Risk are
// inverse 0-10 values; Tier and Grade are derived from Safety.
type Assessment struct {
	Safety float64
	Risk   float64
	Tier   string
	Grade  string
}

// Score computes the assessment from either the advisory risk score or the
// detected conflict list. It is a pure function: same inputs, same result.
func Score(advisoryRisk *float64, conflicts []Conflict) Assessment {
	var safety float64
	if advisoryRisk != nil {
		safety = clampScore(10 - *advisoryRisk)
	} else {
		safety = 10
		for _, conflict := range conflicts {
			switch conflict.Severity {
			case models.SeverityHigh, models.SeverityCritical, "severe":
				safety -= deductionHigh
			case models.SeverityMedium, "moderate":
				safety -= deductionMedium
			default:
				safety -= deductionLow
			}
		}
		safety = clampScore(safety)
	}

	return Assessment{
		Safety: safety,
		Risk:   clampScore(10 - safety),
		Tier:   riskTier(safety),
		Grade:  letterGrade(safety),
	}
}

func riskTier(safety float64) string {
	switch {
	case safety >= 7:
		return models.RiskTierSafe
	case safety >= 4:
		return models.RiskTierCaution
	default:
		return models.RiskTierHighRisk
	}
}

func letterGrade(safety float64) string {
	switch {
	case safety >= 9:
		return "A+"
	case safety >= 8:
		return "A"
	case safety >= 7:
		return "B+"
	case safety >= 6:
		return "B"
	case safety >= 5:
		return "C"
	default:
		return "D"
	}
}

func clampScore(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 10 {
		return 10
	}
	return value
}
