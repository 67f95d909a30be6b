package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cosmatiqa/internal/ai"
	"cosmatiqa/internal/compat"
	"cosmatiqa/internal/ingredient"
	applog "cosmatiqa/internal/log"
	"cosmatiqa/internal/research"
	"cosmatiqa/models"
)

const (
	recentAnalysesCap  = 10
	learnedConfidence  = 0.85
	defaultRoutineName = "My Routine"
)

// Input validation failures surfaced to the caller.
var (
	ErrNoValidProducts = errors.New("analysis: at least one product with a name and ingredient list is required")
	ErrNoIngredients   = errors.New("analysis: no resolvable ingredients in the routine")
	ErrNotFound        = errors.New("analysis: not found")
)

// Advisor is the slice of the advisory model the orchestrator depends on.
type Advisor interface {
	AnalyzeRoutine(ctx context.Context, profile ai.ProfileContext, products []ai.ProductContext) (*ai.RoutineAnalysis, error)
	ExtractBrand(ctx context.Context, productName string) (string, error)
	ResearchPair(ctx context.Context, ingredientA, ingredientB string) (*ai.PairResearch, error)
}

// ProductInput is one product as submitted by the caller.
type ProductInput struct {
	Name           string `json:"name"`
	IngredientText string `json:"ingredient_text"`
	UsageTime      string `json:"usage_time"`
}

// Summary is the caller-facing result of one analysis run.
type Summary struct {
	AnalysisID          string  `json:"analysis_id"`
	RoutineID           string  `json:"routine_id"`
	SafetyScore         float64 `json:"safety_score"`
	RiskScore           float64 `json:"risk_score"`
	SummaryGrade        string  `json:"summary_grade"`
	ConflictsFound      int     `json:"conflicts_found"`
	IngredientsAnalyzed int     `json:"ingredients_analyzed"`
}

// Results is the expanded view of a stored analysis.
type Results struct {
	Analysis  models.AnalysisResult     `json:"analysis"`
	Routine   models.Routine            `json:"routine"`
	Products  []models.Product          `json:"products"`
	Conflicts []models.DetectedConflict `json:"conflicts"`
}

// Analyzer sequences the full routine analysis: ingredient resolution,
// conflict detection, scoring, recommendation assembly, persistence, and the
// closed-loop feedback into the knowledge base and research cache.
type Analyzer struct {
	db              *gorm.DB
	advisor         Advisor
	matcher         *ingredient.Matcher
	kb              *compat.KnowledgeBase
	cache           *research.Cache
	detector        *Detector
	researchTTLDays int
}

// NewAnalyzer builds an Analyzer. The advisor may be nil, in which case every
// run uses the rule-based detection path.
func NewAnalyzer(db *gorm.DB, advisor Advisor) *Analyzer {
	kb := compat.New(db)
	return &Analyzer{
		db:              db,
		advisor:         advisor,
		matcher:         ingredient.NewMatcher(db),
		kb:              kb,
		cache:           research.New(db),
		detector:        NewDetector(kb),
		researchTTLDays: research.DefaultTTLDays,
	}
}

// SetResearchTTL overrides the retention horizon, in days, applied to research
// cache writes. Non-positive values keep the default.
func (a *Analyzer) SetResearchTTL(days int) {
	if days > 0 {
		a.researchTTLDays = days
	}
}

// AnalyzeRoutine runs one end-to-end analysis for the user. Products missing a
// name or ingredient text are skipped silently; the run fails only when no
// valid product remains, no ingredient resolves, or the advisory response is
// malformed in a way that prevents detection from running.
func (a *Analyzer) AnalyzeRoutine(ctx context.Context, userID uint, routineName string, inputs []ProductInput) (*Summary, error) {
	valid := make([]ProductInput, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.IngredientText) == "" {
			applog.Debug(ctx, "skipping incomplete product input", "name", input.Name)
			continue
		}
		valid = append(valid, input)
	}
	if len(valid) == 0 {
		return nil, ErrNoValidProducts
	}

	name := strings.TrimSpace(routineName)
	if name == "" {
		name = defaultRoutineName
	}
	routine := models.Routine{
		PublicID: uuid.NewString(),
		UserID:   userID,
		Name:     name,
		IsActive: true,
	}
	if err := a.db.WithContext(ctx).Create(&routine).Error; err != nil {
		return nil, fmt.Errorf("analysis: create routine: %w", err)
	}

	profile := a.loadProfile(ctx, userID)

	var (
		resolved    []ResolvedIngredient
		aiProducts  []ai.ProductContext
		ingredients int
	)
	for idx, input := range valid {
		usage := models.NormalizeUsageTime(input.UsageTime)
		brand := a.extractBrand(ctx, input.Name)

		product := models.Product{
			RoutineID:      routine.ID,
			Name:           strings.TrimSpace(input.Name),
			Brand:          brand,
			IngredientText: input.IngredientText,
			UsageTime:      usage,
			OrderInRoutine: idx,
		}
		if err := a.db.WithContext(ctx).Create(&product).Error; err != nil {
			return nil, fmt.Errorf("analysis: create product %q: %w", product.Name, err)
		}

		names := ingredient.SplitList(input.IngredientText)
		productRef := product
		productCtx := ai.ProductContext{
			Name:      product.Name,
			Brand:     brand,
			UsageTime: usage,
		}
		for position, ingName := range names {
			record, err := a.matcher.Resolve(ctx, ingName)
			if err != nil {
				return nil, fmt.Errorf("analysis: resolve %q: %w", ingName, err)
			}
			join := models.ProductIngredient{
				ProductID:    product.ID,
				IngredientID: record.ID,
				Position:     position,
			}
			if err := a.db.WithContext(ctx).Create(&join).Error; err != nil {
				return nil, fmt.Errorf("analysis: link ingredient %q: %w", ingName, err)
			}
			resolved = append(resolved, ResolvedIngredient{
				Product:    &productRef,
				Ingredient: record,
				UsageTime:  usage,
			})
			productCtx.Ingredients = append(productCtx.Ingredients, record.INCIName)
			ingredients++
		}
		aiProducts = append(aiProducts, productCtx)
	}

	if ingredients == 0 {
		return nil, ErrNoIngredients
	}

	advisory, err := a.consultAdvisory(ctx, profile, aiProducts)
	if err != nil {
		return nil, err
	}

	conflicts, err := a.detector.Detect(ctx, advisory, resolved)
	if err != nil {
		return nil, fmt.Errorf("analysis: detect conflicts: %w", err)
	}

	var advisoryRisk *float64
	if advisory != nil {
		advisoryRisk = advisory.OverallRiskScore
	}
	assessment := Score(advisoryRisk, conflicts)

	recommendations := buildRecommendations(advisory, conflicts)

	a.learnFromConflicts(ctx, conflicts)

	result, err := a.persistResult(ctx, userID, routine.ID, assessment, advisory, conflicts, recommendations)
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "routine analysis completed",
		"routine", routine.PublicID,
		"analysis", result.PublicID,
		"safety", assessment.Safety,
		"conflicts", len(conflicts),
		"advisory", advisory != nil,
	)

	return &Summary{
		AnalysisID:          result.PublicID,
		RoutineID:           routine.PublicID,
		SafetyScore:         assessment.Safety,
		RiskScore:           assessment.Risk,
		SummaryGrade:        assessment.Grade,
		ConflictsFound:      len(conflicts),
		IngredientsAnalyzed: ingredients,
	}, nil
}

// GetAnalysisResults loads a stored analysis with its routine, products, and
// conflicts expanded to full ingredient/product records.
func (a *Analyzer) GetAnalysisResults(ctx context.Context, analysisID string) (*Results, error) {
	var result models.AnalysisResult
	err := a.db.WithContext(ctx).
		Preload("Conflicts").
		Preload("Conflicts.ProductA").
		Preload("Conflicts.ProductB").
		Preload("Conflicts.IngredientA").
		Preload("Conflicts.IngredientB").
		Where("public_id = ?", strings.TrimSpace(analysisID)).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("analysis: load %q: %w", analysisID, err)
	}

	var routine models.Routine
	if err := a.db.WithContext(ctx).First(&routine, result.RoutineID).Error; err != nil {
		return nil, fmt.Errorf("analysis: load routine %d: %w", result.RoutineID, err)
	}

	var products []models.Product
	if err := a.db.WithContext(ctx).
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		Where("routine_id = ?", routine.ID).
		Order("order_in_routine asc").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("analysis: load products: %w", err)
	}

	return &Results{
		Analysis:  result,
		Routine:   routine,
		Products:  products,
		Conflicts: result.Conflicts,
	}, nil
}

// ListRecentAnalyses returns the user's analysis history, most recent first,
// capped at ten entries.
func (a *Analyzer) ListRecentAnalyses(ctx context.Context, userID uint) ([]models.AnalysisResult, error) {
	var results []models.AnalysisResult
	err := a.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(recentAnalysesCap).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("analysis: list history: %w", err)
	}
	return results, nil
}

// ResearchIngredientPair returns cached pairwise research, consulting the
// advisory model on a cache miss and storing the result.
func (a *Analyzer) ResearchIngredientPair(ctx context.Context, idA, idB uint) (*research.Entry, error) {
	if cached, err := a.cache.Get(ctx, idA, idB); err != nil {
		return nil, err
	} else if cached != nil {
		return cached, nil
	}

	if a.advisor == nil {
		return nil, nil
	}

	var ingA, ingB models.Ingredient
	if err := a.db.WithContext(ctx).First(&ingA, idA).Error; err != nil {
		return nil, fmt.Errorf("analysis: load ingredient %d: %w", idA, err)
	}
	if err := a.db.WithContext(ctx).First(&ingB, idB).Error; err != nil {
		return nil, fmt.Errorf("analysis: load ingredient %d: %w", idB, err)
	}

	finding, err := a.advisor.ResearchPair(ctx, ingA.INCIName, ingB.INCIName)
	if err != nil {
		return nil, err
	}

	payload := strings.TrimSpace(finding.ResearchSummary)
	if payload == "" {
		payload = finding.Explanation
	}
	if err := a.cache.Put(ctx, idA, idB, payload, finding.Confidence, finding.Citations, a.researchTTLDays); err != nil {
		applog.Error(ctx, "failed to cache pair research", "error", err)
	}

	if !finding.Compatible {
		if _, _, err := a.kb.UpsertLearned(ctx, idA, idB, compat.RecordFields{
			ConflictType:    finding.ConflictType,
			Severity:        finding.Severity,
			Recommendation:  finding.Recommendation,
			ScientificBasis: finding.Explanation,
			Source:          "research",
		}); err != nil {
			applog.Error(ctx, "failed to learn from pair research", "error", err)
		}
	}

	return a.cache.Get(ctx, idA, idB)
}

// PurgeResearchCache removes expired research rows; exposed for the periodic
// sweep.
func (a *Analyzer) PurgeResearchCache(ctx context.Context) (int64, error) {
	return a.cache.PurgeExpired(ctx)
}

func (a *Analyzer) loadProfile(ctx context.Context, userID uint) ai.ProfileContext {
	var profile models.UserProfile
	err := a.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Error(ctx, "failed to load user profile", "error", err, "user", userID)
		}
		return ai.ProfileContext{SkinType: "normal"}
	}
	skinType := strings.TrimSpace(profile.SkinType)
	if skinType == "" {
		skinType = "normal"
	}
	return ai.ProfileContext{
		SkinType:      skinType,
		Sensitivities: profile.Sensitivities,
		Goals:         profile.Goals,
	}
}

func (a *Analyzer) extractBrand(ctx context.Context, productName string) string {
	if a.advisor == nil {
		return ""
	}
	brand, err := a.advisor.ExtractBrand(ctx, productName)
	if err != nil {
		applog.Debug(ctx, "brand extraction failed", "product", productName, "error", err)
		return ""
	}
	return brand
}

// consultAdvisory performs the single main advisory call. Unavailability
// degrades to a nil analysis; a malformed payload is the one advisory failure
// allowed to propagate.
func (a *Analyzer) consultAdvisory(ctx context.Context, profile ai.ProfileContext, products []ai.ProductContext) (*ai.RoutineAnalysis, error) {
	if a.advisor == nil {
		return nil, nil
	}
	advisory, err := a.advisor.AnalyzeRoutine(ctx, profile, products)
	if err != nil {
		if errors.Is(err, ai.ErrMalformedAnalysis) {
			return nil, err
		}
		applog.Error(ctx, "advisory analysis unavailable, falling back to rules", "error", err)
		return nil, nil
	}
	return advisory, nil
}

// learnFromConflicts folds validated advisory conflicts back into the
// knowledge base and seeds the research cache for newly learned pairs. Write
// failures are logged, never fatal.
func (a *Analyzer) learnFromConflicts(ctx context.Context, conflicts []Conflict) {
	for _, conflict := range conflicts {
		if !conflict.FromAdvisory {
			continue
		}

		created, _, err := a.kb.UpsertLearned(ctx, conflict.IngredientA.ID, conflict.IngredientB.ID, compat.RecordFields{
			ConflictType:    conflict.ConflictType,
			Severity:        conflict.Severity,
			Recommendation:  conflict.Recommendation,
			ScientificBasis: conflict.Explanation,
			Source:          "ai",
		})
		if err != nil {
			applog.Error(ctx, "failed to fold advisory conflict into knowledge base", "error", err)
			continue
		}
		if !created {
			continue
		}

		cached, err := a.cache.Get(ctx, conflict.IngredientA.ID, conflict.IngredientB.ID)
		if err != nil {
			applog.Error(ctx, "research cache lookup failed", "error", err)
			continue
		}
		if cached != nil {
			continue
		}

		payload := conflict.Explanation
		if rec := strings.TrimSpace(conflict.Recommendation); rec != "" {
			payload = strings.TrimSpace(payload + " Recommendation: " + rec)
		}
		if err := a.cache.Put(ctx, conflict.IngredientA.ID, conflict.IngredientB.ID, payload, learnedConfidence, nil, a.researchTTLDays); err != nil {
			applog.Error(ctx, "failed to seed research cache", "error", err)
		}
	}
}

func (a *Analyzer) persistResult(
	ctx context.Context,
	userID, routineID uint,
	assessment Assessment,
	advisory *ai.RoutineAnalysis,
	conflicts []Conflict,
	recommendations []string,
) (*models.AnalysisResult, error) {
	payload := map[string]any{
		"safetyScore": assessment.Safety,
		"riskScore":   assessment.Risk,
	}
	if advisory != nil {
		payload["advisory"] = map[string]any{
			"summary":            advisory.Summary,
			"profileSummary":     advisory.ProfileSummary,
			"ingredientWarnings": advisory.IngredientWarnings,
			"ingredientBenefits": advisory.IngredientBenefits,
			"morningRoutine":     advisory.MorningRoutine,
			"eveningRoutine":     advisory.EveningRoutine,
		}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("analysis: encode payload: %w", err)
	}

	result := models.AnalysisResult{
		PublicID:        uuid.NewString(),
		RoutineID:       routineID,
		UserID:          userID,
		RiskTier:        assessment.Tier,
		SummaryGrade:    assessment.Grade,
		SafetyScore:     assessment.Safety,
		RiskScore:       assessment.Risk,
		ConflictCount:   len(conflicts),
		Payload:         string(encoded),
		Recommendations: strings.Join(recommendations, "\n"),
	}

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&result).Error; err != nil {
			return err
		}
		for _, conflict := range conflicts {
			row := models.DetectedConflict{
				AnalysisID:       result.ID,
				ProductAID:       conflict.ProductA.ID,
				ProductBID:       conflict.ProductB.ID,
				IngredientAID:    conflict.IngredientA.ID,
				IngredientBID:    conflict.IngredientB.ID,
				Severity:         conflict.Severity,
				ConflictType:     conflict.ConflictType,
				Explanation:      conflict.Explanation,
				Recommendation:   conflict.Recommendation,
				TemporalConflict: conflict.Temporal,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: persist result: %w", err)
	}
	return &result, nil
}
