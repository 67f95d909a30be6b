package ai

import (
	"context"
	"errors"
	"strings"
)

const brandMaxTokens = 30

// ExtractBrand asks the advisory model for the brand name embedded in a
// free-text product name. The response is plain text, trimmed and stripped of
// surrounding quotes. An empty answer means no brand could be identified.
func (c *Client) ExtractBrand(ctx context.Context, productName string) (string, error) {
	trimmed := strings.TrimSpace(productName)
	if trimmed == "" {
		return "", errors.New("ai: product name must not be empty")
	}

	content, err := c.completeWithFallback(ctx, chatRequest{
		systemPrompt: "You identify cosmetic brand names. Reply with only the brand name, or an empty string when none is present. No punctuation, no explanation.",
		userPrompt:   "Product name: " + trimmed,
		maxTokens:    brandMaxTokens,
	})
	if err != nil {
		return "", err
	}

	brand := strings.TrimSpace(content)
	brand = strings.Trim(brand, `"'`)
	brand = strings.TrimSpace(brand)
	switch strings.ToLower(brand) {
	case "none", "n/a", "unknown":
		return "", nil
	}
	return brand, nil
}
