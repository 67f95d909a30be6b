package ingredient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	applog "cosmatiqa/internal/log"
	"cosmatiqa/models"
)

const fuzzyCandidateLimit = 5

var (
	activeKeywords       = []string{"acid", "retinol", "peptide", "vitamin", "niacinamide", "salicylic", "glycolic", "lactic"}
	preservativeKeywords = []string{"paraben", "phenoxyethanol", "preservative"}
	fragranceKeywords    = []string{"fragrance", "parfum", "aroma"}
)

// Matcher resolves free-text ingredient names to Ingredient rows, creating new
// rows on a total miss. Resolution always succeeds for a non-empty name.
type Matcher struct {
	db *gorm.DB
}

// NewMatcher builds a Matcher bound to the given database handle.
func NewMatcher(db *gorm.DB) *Matcher {
	return &Matcher{db: db}
}

// Resolve looks up the ingredient by exact canonical name, then by fuzzy
// search over canonical names, then by alias, and finally creates a new record
// with a keyword-derived category and a default property sheet. Concurrent
// creation of the same name is serialized on the unique canonical-name
// constraint; the losing writer re-fetches the winner's row.
func (m *Matcher) Resolve(ctx context.Context, name string) (*models.Ingredient, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errors.New("ingredient: name must not be empty")
	}

	if found, err := m.findExact(ctx, trimmed); err != nil {
		return nil, err
	} else if found != nil {
		return found, nil
	}

	if found, err := m.findFuzzy(ctx, trimmed); err != nil {
		return nil, err
	} else if found != nil {
		applog.Debug(ctx, "ingredient resolved by fuzzy match", "query", trimmed, "match", found.INCIName)
		return found, nil
	}

	if found, err := m.findByAlias(ctx, trimmed); err != nil {
		return nil, err
	} else if found != nil {
		applog.Debug(ctx, "ingredient resolved by alias", "query", trimmed, "match", found.INCIName)
		return found, nil
	}

	return m.create(ctx, trimmed)
}

func (m *Matcher) findExact(ctx context.Context, name string) (*models.Ingredient, error) {
	var record models.Ingredient
	err := m.db.WithContext(ctx).Where("inci_name = ?", name).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingredient: exact lookup %q: %w", name, err)
	}
	return &record, nil
}

// findFuzzy collects up to five canonical-name candidates containing the query
// (or contained by it) and returns the closest one by edit distance.
func (m *Matcher) findFuzzy(ctx context.Context, name string) (*models.Ingredient, error) {
	needle := "%" + strings.ToLower(name) + "%"
	var candidates []models.Ingredient
	err := m.db.WithContext(ctx).
		Where("lower(inci_name) LIKE ?", needle).
		Order("inci_name asc").
		Limit(fuzzyCandidateLimit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("ingredient: fuzzy lookup %q: %w", name, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	normQuery := normalizeName(name)
	best := 0
	bestDist := levenshteinDistance(normQuery, normalizeName(candidates[0].INCIName))
	for i := 1; i < len(candidates); i++ {
		dist := levenshteinDistance(normQuery, normalizeName(candidates[i].INCIName))
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return &candidates[best], nil
}

func (m *Matcher) findByAlias(ctx context.Context, name string) (*models.Ingredient, error) {
	var aliases []models.CommonName
	if err := m.db.WithContext(ctx).Find(&aliases).Error; err != nil {
		return nil, fmt.Errorf("ingredient: alias scan: %w", err)
	}

	lowerQuery := strings.ToLower(name)
	for _, alias := range aliases {
		lowerAlias := strings.ToLower(strings.TrimSpace(alias.Name))
		if lowerAlias == "" {
			continue
		}
		if lowerAlias == lowerQuery ||
			strings.Contains(lowerQuery, lowerAlias) ||
			strings.Contains(lowerAlias, lowerQuery) {
			var record models.Ingredient
			if err := m.db.WithContext(ctx).First(&record, alias.IngredientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return nil, fmt.Errorf("ingredient: load alias owner %d: %w", alias.IngredientID, err)
			}
			return &record, nil
		}
	}
	return nil, nil
}

func (m *Matcher) create(ctx context.Context, name string) (*models.Ingredient, error) {
	category := inferCategory(name)
	record := models.Ingredient{
		INCIName: name,
		Category: category,
		IsActive: category == models.CategoryActive,
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		props := models.IngredientProperties{IngredientID: record.ID}
		return tx.Create(&props).Error
	})
	if err != nil {
		// A concurrent caller may have created the row first; the unique
		// canonical-name constraint guarantees a single winner.
		if existing, lookupErr := m.findExact(ctx, name); lookupErr == nil && existing != nil {
			applog.Debug(ctx, "ingredient created concurrently, using existing row", "name", name)
			return existing, nil
		}
		return nil, fmt.Errorf("ingredient: create %q: %w", name, err)
	}

	applog.Info(ctx, "ingredient created", "name", name, "category", category)
	return &record, nil
}

// inferCategory derives a category from keywords in the lowercased name.
// Active keywords take precedence over preservative and fragrance ones.
func inferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, keyword := range activeKeywords {
		if strings.Contains(lower, keyword) {
			return models.CategoryActive
		}
	}
	for _, keyword := range preservativeKeywords {
		if strings.Contains(lower, keyword) {
			return models.CategoryPreservative
		}
	}
	for _, keyword := range fragranceKeywords {
		if strings.Contains(lower, keyword) {
			return models.CategoryFragrance
		}
	}
	return models.CategoryBase
}

func normalizeName(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	var builder strings.Builder
	for _, r := range trimmed {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = minInt(
				curr[j-1]+1,
				minInt(prev[j]+1, prev[j-1]+cost),
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
