package analysis

import (
	"context"
	"strings"

	"cosmatiqa/internal/ai"
	"cosmatiqa/internal/compat"
	applog "cosmatiqa/internal/log"
	"cosmatiqa/models"
)

// ResolvedIngredient ties one resolved ingredient to the product it came from
// and that product's usage timing.
type ResolvedIngredient struct {
	Product    *models.Product
	Ingredient *models.Ingredient
	UsageTime  string
}

// Conflict is one detected ingredient-pair conflict, ready for persistence.
type Conflict struct {
	ProductA       *models.Product
	ProductB       *models.Product
	IngredientA    *models.Ingredient
	IngredientB    *models.Ingredient
	Severity       string
	ConflictType   string
	Explanation    string
	Recommendation string
	Temporal       bool
	FromAdvisory   bool
}

// Detector produces the conflict list for a routine. Advisory output wins when
// it reports any conflicts; otherwise every cross-product ingredient pair is
// checked against the knowledge base. An empty result is a valid outcome, not
// an error.
type Detector struct {
	kb *compat.KnowledgeBase
}

// NewDetector builds a Detector backed by the given knowledge base.
func NewDetector(kb *compat.KnowledgeBase) *Detector {
	return &Detector{kb: kb}
}

// Detect runs whichever strategy applies for this analysis run.
func (d *Detector) Detect(ctx context.Context, advisory *ai.RoutineAnalysis, resolved []ResolvedIngredient) ([]Conflict, error) {
	if advisory != nil && len(advisory.Conflicts) > 0 {
		return d.fromAdvisory(ctx, advisory.Conflicts, resolved), nil
	}
	return d.fromKnowledgeBase(ctx, resolved)
}

// fromAdvisory maps each advisory conflict onto resolved ingredient and
// product identities. Conflicts whose ingredients cannot both be resolved, or
// that fall within a single product, are dropped with a diagnostic.
func (d *Detector) fromAdvisory(ctx context.Context, advisories []ai.AdvisoryConflict, resolved []ResolvedIngredient) []Conflict {
	conflicts := make([]Conflict, 0, len(advisories))
	for _, advisory := range advisories {
		matchesA := matchResolved(resolved, advisory.IngredientA)
		matchesB := matchResolved(resolved, advisory.IngredientB)
		if len(matchesA) == 0 || len(matchesB) == 0 {
			applog.Debug(ctx, "advisory conflict dropped: ingredient not resolved",
				"ingredientA", advisory.IngredientA, "ingredientB", advisory.IngredientB)
			continue
		}

		pair, ok := pickCrossProductPair(matchesA, matchesB)
		if !ok {
			// Ingredients already combined in one formulation are compatible
			// by construction.
			applog.Debug(ctx, "advisory conflict dropped: same product",
				"ingredientA", advisory.IngredientA, "ingredientB", advisory.IngredientB)
			continue
		}

		conflicts = append(conflicts, Conflict{
			ProductA:       pair[0].Product,
			ProductB:       pair[1].Product,
			IngredientA:    pair[0].Ingredient,
			IngredientB:    pair[1].Ingredient,
			Severity:       compat.NormalizeSeverity(advisory.Severity),
			ConflictType:   strings.TrimSpace(advisory.ConflictType),
			Explanation:    strings.TrimSpace(advisory.Explanation),
			Recommendation: strings.TrimSpace(advisory.Recommendation),
			Temporal:       advisory.IsTemporalConflict,
			FromAdvisory:   true,
		})
	}
	return conflicts
}

// fromKnowledgeBase scans every unordered ingredient pair across different
// products and emits a conflict for each pair the knowledge base knows about.
func (d *Detector) fromKnowledgeBase(ctx context.Context, resolved []ResolvedIngredient) ([]Conflict, error) {
	var conflicts []Conflict
	for i := 0; i < len(resolved); i++ {
		for j := i + 1; j < len(resolved); j++ {
			a, b := resolved[i], resolved[j]
			if a.Product.ID == b.Product.ID {
				continue
			}

			record, err := d.kb.FindConflict(ctx, a.Ingredient.ID, b.Ingredient.ID)
			if err != nil {
				return nil, err
			}
			if record == nil {
				continue
			}

			conflicts = append(conflicts, Conflict{
				ProductA:       a.Product,
				ProductB:       b.Product,
				IngredientA:    a.Ingredient,
				IngredientB:    b.Ingredient,
				Severity:       compat.NormalizeSeverity(record.Severity),
				ConflictType:   record.ConflictType,
				Explanation:    record.ScientificBasis,
				Recommendation: record.Recommendation,
				Temporal:       usageOverlaps(a.UsageTime, b.UsageTime),
			})
		}
	}
	return conflicts, nil
}

// usageOverlaps reports whether two products are plausibly applied in the same
// routine window: identical timings, or either used in both windows.
func usageOverlaps(usageA, usageB string) bool {
	if usageA == usageB {
		return true
	}
	return usageA == models.UsageBoth || usageB == models.UsageBoth
}

// matchResolved finds every resolved ingredient matching the advisory name:
// exact case-insensitive equality first, then substring either direction, then
// the curated synonym fallback.
func matchResolved(resolved []ResolvedIngredient, name string) []ResolvedIngredient {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil
	}

	var exact, loose, synonym []ResolvedIngredient
	for _, item := range resolved {
		candidate := strings.ToLower(item.Ingredient.INCIName)
		switch {
		case candidate == query:
			exact = append(exact, item)
		case strings.Contains(candidate, query) || strings.Contains(query, candidate):
			loose = append(loose, item)
		case synonymMatches(query, candidate):
			synonym = append(synonym, item)
		}
	}

	if len(exact) > 0 {
		return exact
	}
	if len(loose) > 0 {
		return loose
	}
	return synonym
}

// synonymMatches covers the advisory model's habit of naming ingredient
// families rather than INCI names.
func synonymMatches(query, candidate string) bool {
	switch {
	case strings.Contains(query, "vitamin c"), strings.Contains(query, "ascorbic"):
		return strings.Contains(candidate, "ascorbic")
	case strings.Contains(query, "retinoid"), strings.Contains(query, "retinol"):
		return strings.Contains(candidate, "retinol") || strings.Contains(candidate, "tretinoin")
	default:
		return false
	}
}

// pickCrossProductPair returns the first combination of matches that spans two
// different products.
func pickCrossProductPair(matchesA, matchesB []ResolvedIngredient) ([2]ResolvedIngredient, bool) {
	for _, a := range matchesA {
		for _, b := range matchesB {
			if a.Product.ID != b.Product.ID {
				return [2]ResolvedIngredient{a, b}, true
			}
		}
	}
	return [2]ResolvedIngredient{}, false
}
