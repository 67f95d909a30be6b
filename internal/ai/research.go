package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	researchMaxTokens = 600

	// Confidence assigned when a research response is readable text but not
	// valid JSON.
	fallbackConfidence = 0.5
)

// PairResearch is the structured result of a pairwise compatibility lookup.
type PairResearch struct {
	Compatible      bool     `json:"compatible"`
	Severity        string   `json:"severity"`
	ConflictType    string   `json:"conflictType"`
	Explanation     string   `json:"explanation"`
	Recommendation  string   `json:"recommendation"`
	Confidence      float64  `json:"confidence"`
	Citations       []string `json:"citations"`
	ResearchSummary string   `json:"researchSummary"`
}

// ResearchPair asks the advisory model whether two ingredients are compatible.
// A response that is not valid JSON after fence stripping degrades to a
// best-effort result carrying the raw text as the explanation with neutral
// confidence, rather than failing.
func (c *Client) ResearchPair(ctx context.Context, ingredientA, ingredientB string) (*PairResearch, error) {
	a := strings.TrimSpace(ingredientA)
	b := strings.TrimSpace(ingredientB)
	if a == "" || b == "" {
		return nil, errors.New("ai: both ingredient names are required")
	}

	content, err := c.completeWithFallback(ctx, chatRequest{
		systemPrompt: researchSystemPrompt,
		userPrompt:   fmt.Sprintf("Ingredient pair: %q and %q", a, b),
		maxTokens:    researchMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	content = stripCodeFence(content)

	var result PairResearch
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return &PairResearch{
			Compatible:  true,
			Explanation: content,
			Confidence:  fallbackConfidence,
		}, nil
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return &result, nil
}

const researchSystemPrompt = `You are a cosmetic science researcher evaluating whether two skincare ingredients can be combined.
Respond with strictly valid JSON using this schema:
{
  "compatible": boolean,
  "severity": "low"|"medium"|"high"|"critical",
  "conflictType": string,
  "explanation": string,
  "recommendation": string,
  "confidence": number (0-1),
  "citations": [string],
  "researchSummary": string
}
Never include markdown or commentary outside the JSON payload.`
