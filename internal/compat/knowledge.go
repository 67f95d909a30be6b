package compat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	applog "cosmatiqa/internal/log"
	"cosmatiqa/models"
)

// RecordFields carries the payload of a learned compatibility record.
type RecordFields struct {
	ConflictType    string
	Severity        string
	Recommendation  string
	ScientificBasis string
	Source          string
}

// KnowledgeBase stores pairwise ingredient relationships. Pairs are unordered;
// rows are written with the lower ingredient id in slot A so the unique pair
// index can enforce one record per pair, while every lookup still checks both
// orderings. Learned entries are first-write-wins: an existing record is never
// overwritten by a later finding.
type KnowledgeBase struct {
	db *gorm.DB
}

// New builds a KnowledgeBase bound to the given database handle.
func New(db *gorm.DB) *KnowledgeBase {
	return &KnowledgeBase{db: db}
}

// FindConflict returns the stored record for the unordered pair, or nil when
// the pair is unknown.
func (kb *KnowledgeBase) FindConflict(ctx context.Context, idA, idB uint) (*models.CompatibilityRecord, error) {
	var record models.CompatibilityRecord
	err := kb.db.WithContext(ctx).
		Where("(ingredient_a_id = ? AND ingredient_b_id = ?) OR (ingredient_a_id = ? AND ingredient_b_id = ?)",
			idA, idB, idB, idA).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("compat: find pair (%d, %d): %w", idA, idB, err)
	}
	return &record, nil
}

// UpsertLearned inserts a record for the pair unless one already exists in
// either order. It reports whether a new row was created along with the id of
// the surviving record. The pair is stored in canonical slot order.
func (kb *KnowledgeBase) UpsertLearned(ctx context.Context, idA, idB uint, fields RecordFields) (bool, uint, error) {
	if idB < idA {
		idA, idB = idB, idA
	}

	existing, err := kb.FindConflict(ctx, idA, idB)
	if err != nil {
		return false, 0, err
	}
	if existing != nil {
		return false, existing.ID, nil
	}

	source := strings.TrimSpace(fields.Source)
	if source == "" {
		source = "learned"
	}

	record := models.CompatibilityRecord{
		IngredientAID:   idA,
		IngredientBID:   idB,
		ConflictType:    strings.TrimSpace(fields.ConflictType),
		Severity:        NormalizeSeverity(fields.Severity),
		Recommendation:  strings.TrimSpace(fields.Recommendation),
		ScientificBasis: strings.TrimSpace(fields.ScientificBasis),
		Source:          source,
	}

	if err := kb.db.WithContext(ctx).Create(&record).Error; err != nil {
		// The unique pair index rejects the loser of a concurrent race;
		// re-check and treat the winner's row as the result.
		if winner, findErr := kb.FindConflict(ctx, idA, idB); findErr == nil && winner != nil {
			applog.Debug(ctx, "compatibility record created concurrently, keeping existing",
				"ingredientA", idA, "ingredientB", idB)
			return false, winner.ID, nil
		}
		return false, 0, fmt.Errorf("compat: create pair (%d, %d): %w", idA, idB, err)
	}

	applog.Info(ctx, "compatibility record learned",
		"ingredientA", idA, "ingredientB", idB, "severity", record.Severity, "type", record.ConflictType)
	return true, record.ID, nil
}

// NormalizeSeverity folds the mixed vocabulary found in seed and advisory data
// ("moderate"/"medium", "severe"/"high") onto the canonical four-level scale.
// Unknown values map to low.
func NormalizeSeverity(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case models.SeverityCritical:
		return models.SeverityCritical
	case models.SeverityHigh, "severe":
		return models.SeverityHigh
	case models.SeverityMedium, "moderate":
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
