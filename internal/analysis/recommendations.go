package analysis

import (
	"fmt"
	"strings"

	"cosmatiqa/internal/ai"
	"cosmatiqa/internal/compat"
	"cosmatiqa/models"
)

const benefitLimit = 3

// buildRecommendations assembles the ordered recommendation list shown to the
// caller: advisory summary, high-severity ingredient warnings, top ingredient
// benefits, the conflict-count statement, then the morning/evening routine
// orderings.
func buildRecommendations(advisory *ai.RoutineAnalysis, conflicts []Conflict) []string {
	var recommendations []string

	if advisory != nil && advisory.Summary != "" {
		recommendations = append(recommendations, advisory.Summary)
	}

	if advisory != nil {
		for _, warning := range advisory.IngredientWarnings {
			if compat.NormalizeSeverity(warning.Severity) != models.SeverityHigh &&
				compat.NormalizeSeverity(warning.Severity) != models.SeverityCritical {
				continue
			}
			line := fmt.Sprintf("Caution with %s", strings.TrimSpace(warning.Ingredient))
			if product := strings.TrimSpace(warning.Product); product != "" {
				line += fmt.Sprintf(" in %s", product)
			}
			if concern := strings.TrimSpace(warning.Concern); concern != "" {
				line += ": " + concern
			}
			if rec := strings.TrimSpace(warning.Recommendation); rec != "" {
				line += " " + rec
			}
			recommendations = append(recommendations, line)
		}

		for i, benefit := range advisory.IngredientBenefits {
			if i >= benefitLimit {
				break
			}
			text := strings.TrimSpace(benefit.Benefit)
			if text == "" {
				continue
			}
			name := strings.TrimSpace(benefit.Ingredient)
			if name != "" {
				recommendations = append(recommendations, fmt.Sprintf("%s: %s", name, text))
			} else {
				recommendations = append(recommendations, text)
			}
		}
	}

	recommendations = append(recommendations, conflictStatement(conflicts)...)

	if advisory != nil {
		if len(advisory.MorningRoutine) > 0 {
			recommendations = append(recommendations, "Morning routine: "+strings.Join(advisory.MorningRoutine, " -> "))
		}
		if len(advisory.EveningRoutine) > 0 {
			recommendations = append(recommendations, "Evening routine: "+strings.Join(advisory.EveningRoutine, " -> "))
		}
	}

	return recommendations
}

func conflictStatement(conflicts []Conflict) []string {
	if len(conflicts) == 0 {
		return []string{"No ingredient conflicts detected. Your routine looks well balanced."}
	}

	noun := "conflicts"
	if len(conflicts) == 1 {
		noun = "conflict"
	}
	statements := []string{fmt.Sprintf("Found %d ingredient %s in your routine.", len(conflicts), noun)}

	for _, conflict := range conflicts {
		if conflict.Severity == models.SeverityHigh || conflict.Severity == models.SeverityCritical {
			statements = append(statements, "Review the high severity conflicts before continuing this routine.")
			break
		}
	}
	return statements
}
