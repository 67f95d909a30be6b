package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const analysisMaxTokens = 2000

// ErrMalformedAnalysis marks a routine-analysis response that could not be
// parsed after fence stripping. Unlike the research variant, the main call has
// no safe structured fallback, so this error is surfaced to the caller.
var ErrMalformedAnalysis = errors.New("ai: malformed routine analysis payload")

// ProfileContext is the user context embedded in the analysis prompt.
type ProfileContext struct {
	SkinType      string
	Sensitivities string
	Goals         string
}

// ProductContext describes one routine product for the analysis prompt.
type ProductContext struct {
	Name        string
	Brand       string
	UsageTime   string
	Ingredients []string
}

// AdvisoryConflict is one ingredient-pair conflict reported by the model.
type AdvisoryConflict struct {
	IngredientA        string `json:"ingredientA"`
	IngredientB        string `json:"ingredientB"`
	ProductA           string `json:"productA"`
	ProductB           string `json:"productB"`
	Severity           string `json:"severity"`
	ConflictType       string `json:"conflictType"`
	Explanation        string `json:"explanation"`
	Recommendation     string `json:"recommendation"`
	IsTemporalConflict bool   `json:"isTemporalConflict"`
}

// IngredientWarning flags a single ingredient concern for the user's profile.
type IngredientWarning struct {
	Ingredient     string `json:"ingredient"`
	Product        string `json:"product"`
	Concern        string `json:"concern"`
	Recommendation string `json:"recommendation"`
	Severity       string `json:"severity"`
}

// IngredientBenefit highlights one ingredient working in the user's favour.
type IngredientBenefit struct {
	Ingredient string `json:"ingredient"`
	Product    string `json:"product"`
	Benefit    string `json:"benefit"`
}

// RoutineAnalysis is the normalised advisory payload. Every field is optional
// in the wire format; absent fields keep their zero value and the risk score is
// nil when the model omitted it.
type RoutineAnalysis struct {
	OverallRiskScore   *float64
	Conflicts          []AdvisoryConflict
	IngredientWarnings []IngredientWarning
	IngredientBenefits []IngredientBenefit
	MorningRoutine     []string
	EveningRoutine     []string
	Summary            string
	ProfileSummary     string
}

type routineAnalysisPayload struct {
	OverallRiskScore   any                 `json:"overallRiskScore"`
	Conflicts          []AdvisoryConflict  `json:"conflicts"`
	IngredientWarnings []IngredientWarning `json:"ingredientWarnings"`
	IngredientBenefits []IngredientBenefit `json:"ingredientBenefits"`
	MorningRoutine     []string            `json:"morningRoutine"`
	EveningRoutine     []string            `json:"eveningRoutine"`
	Summary            string              `json:"summary"`
	ProfileSummary     string              `json:"profileSummary"`
}

// AnalyzeRoutine asks the advisory model for a full routine assessment.
// Transport failures (after the fallback model retry) are returned as plain
// errors the caller may treat as "advisory unavailable"; a response that
// survives transport but fails to parse returns ErrMalformedAnalysis.
func (c *Client) AnalyzeRoutine(ctx context.Context, profile ProfileContext, products []ProductContext) (*RoutineAnalysis, error) {
	if len(products) == 0 {
		return nil, errors.New("ai: routine analysis requires at least one product")
	}

	content, err := c.completeWithFallback(ctx, chatRequest{
		systemPrompt: analysisSystemPrompt,
		userPrompt:   buildAnalysisPrompt(profile, products),
		maxTokens:    analysisMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	content = stripCodeFence(content)

	var payload routineAnalysisPayload
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}

	return normalizeAnalysis(payload), nil
}

const analysisSystemPrompt = `You are a cosmetic chemist reviewing skincare routines for ingredient conflicts.
Assess the routine for ingredient interactions, irritation stacking, pH incompatibility, and deactivation.
Respond with strictly valid JSON using this schema:
{
  "overallRiskScore": number (0-10, higher is riskier),
  "conflicts": [{"ingredientA": string, "ingredientB": string, "productA": string, "productB": string, "severity": "HIGH"|"MEDIUM"|"LOW", "conflictType": string, "explanation": string, "recommendation": string, "isTemporalConflict": boolean}],
  "ingredientWarnings": [{"ingredient": string, "product": string, "concern": string, "recommendation": string, "severity": string}],
  "ingredientBenefits": [{"ingredient": string, "product": string, "benefit": string}] (exactly 3 entries),
  "morningRoutine": [string],
  "eveningRoutine": [string],
  "summary": string (at most 50 words),
  "profileSummary": string (300-500 words)
}
Only report conflicts between ingredients in different products. Never include markdown or commentary outside the JSON payload.`

func buildAnalysisPrompt(profile ProfileContext, products []ProductContext) string {
	var builder strings.Builder

	builder.WriteString("User profile:\n")
	skinType := strings.TrimSpace(profile.SkinType)
	if skinType == "" {
		skinType = "normal"
	}
	fmt.Fprintf(&builder, "- Skin type: %s\n", skinType)
	if s := strings.TrimSpace(profile.Sensitivities); s != "" {
		fmt.Fprintf(&builder, "- Sensitivities: %s\n", s)
	}
	if g := strings.TrimSpace(profile.Goals); g != "" {
		fmt.Fprintf(&builder, "- Goals: %s\n", g)
	}

	builder.WriteString("\nRoutine products:\n")
	for i, product := range products {
		fmt.Fprintf(&builder, "%d. %s", i+1, product.Name)
		if brand := strings.TrimSpace(product.Brand); brand != "" {
			fmt.Fprintf(&builder, " (%s)", brand)
		}
		fmt.Fprintf(&builder, ", used %s\n", product.UsageTime)
		fmt.Fprintf(&builder, "   Ingredients: %s\n", strings.Join(product.Ingredients, ", "))
	}

	return builder.String()
}

func normalizeAnalysis(payload routineAnalysisPayload) *RoutineAnalysis {
	result := &RoutineAnalysis{
		Conflicts:          payload.Conflicts,
		IngredientWarnings: payload.IngredientWarnings,
		IngredientBenefits: payload.IngredientBenefits,
		MorningRoutine:     trimAll(payload.MorningRoutine),
		EveningRoutine:     trimAll(payload.EveningRoutine),
		Summary:            strings.TrimSpace(payload.Summary),
		ProfileSummary:     strings.TrimSpace(payload.ProfileSummary),
	}
	if score, ok := parseRiskScore(payload.OverallRiskScore); ok {
		result.OverallRiskScore = &score
	}
	return result
}

func parseRiskScore(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
