package mock

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "cosmatiqa/internal/log"
	"cosmatiqa/models"
)

// New returns an in-memory sqlite database seeded with a demo account, a
// small ingredient dictionary, and the well-known conflict pairs.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:cosmatiqa-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Ingredient{},
		&models.CommonName{},
		&models.IngredientProperties{},
		&models.CompatibilityRecord{},
		&models.ResearchCacheEntry{},
		&models.Routine{},
		&models.Product{},
		&models.ProductIngredient{},
		&models.AnalysisResult{},
		&models.DetectedConflict{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	user := &models.User{
		Name:  "Avery Lane",
		Email: "avery@cosmatiqa.app",
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	profile := &models.UserProfile{
		UserID:        user.ID,
		SkinType:      "combination",
		Sensitivities: "fragrance",
		Goals:         "brightening, anti-aging",
	}
	if err := db.WithContext(ctx).Create(profile).Error; err != nil {
		return err
	}

	retinol := models.Ingredient{
		INCIName: "Retinol",
		Function: "Cell-communicating retinoid supporting collagen production.",
		Category: models.CategoryActive,
		IsActive: true,
		CommonNames: []models.CommonName{
			{Name: "Vitamin A"},
		},
		Properties: &models.IngredientProperties{
			PHMin:          floatPtr(5.0),
			PHMax:          floatPtr(6.5),
			IrritancyScore: 6,
		},
	}

	ascorbic := models.Ingredient{
		INCIName: "L-Ascorbic Acid",
		Function: "Antioxidant brightener, most effective at low pH.",
		Category: models.CategoryActive,
		IsActive: true,
		CommonNames: []models.CommonName{
			{Name: "Vitamin C"},
			{Name: "Ascorbic Acid"},
		},
		Properties: &models.IngredientProperties{
			PHMin:          floatPtr(2.5),
			PHMax:          floatPtr(3.5),
			IrritancyScore: 4,
		},
	}

	glycolic := models.Ingredient{
		INCIName: "Glycolic Acid",
		Function: "Alpha hydroxy acid exfoliant.",
		Category: models.CategoryActive,
		IsActive: true,
		CommonNames: []models.CommonName{
			{Name: "AHA"},
		},
		Properties: &models.IngredientProperties{
			PHMin:          floatPtr(3.0),
			PHMax:          floatPtr(4.0),
			IrritancyScore: 5,
		},
	}

	niacinamide := models.Ingredient{
		INCIName: "Niacinamide",
		Function: "Barrier-supporting form of vitamin B3.",
		Category: models.CategoryActive,
		IsActive: true,
		CommonNames: []models.CommonName{
			{Name: "Vitamin B3"},
			{Name: "Nicotinamide"},
		},
		Properties: &models.IngredientProperties{
			PHMin:          floatPtr(5.0),
			PHMax:          floatPtr(7.0),
			IrritancyScore: 1,
		},
	}

	glycerin := models.Ingredient{
		INCIName: "Glycerin",
		Function: "Humectant.",
		Category: models.CategoryBase,
		Properties: &models.IngredientProperties{
			IrritancyScore: 0,
		},
	}

	benzoyl := models.Ingredient{
		INCIName: "Benzoyl Peroxide",
		Function: "Antibacterial acne treatment.",
		Category: models.CategoryActive,
		IsActive: true,
		Properties: &models.IngredientProperties{
			IrritancyScore: 7,
		},
	}

	ingredients := []*models.Ingredient{&retinol, &ascorbic, &glycolic, &niacinamide, &glycerin, &benzoyl}
	for _, ing := range ingredients {
		if err := db.WithContext(ctx).Create(ing).Error; err != nil {
			return err
		}
	}

	conflicts := []models.CompatibilityRecord{
		{
			IngredientAID:   retinol.ID,
			IngredientBID:   ascorbic.ID,
			ConflictType:    "pH incompatibility",
			Severity:        models.SeverityHigh,
			Recommendation:  "Use vitamin C in the morning and retinol at night.",
			ScientificBasis: "Low-pH vitamin C formulations reduce retinol stability and compound irritation.",
		},
		{
			IngredientAID:   retinol.ID,
			IngredientBID:   glycolic.ID,
			ConflictType:    "over-exfoliation",
			Severity:        models.SeverityHigh,
			Recommendation:  "Alternate nights rather than layering.",
			ScientificBasis: "Combining AHA exfoliation with retinoids raises irritation and barrier damage risk.",
		},
		{
			IngredientAID:   retinol.ID,
			IngredientBID:   benzoyl.ID,
			ConflictType:    "deactivation",
			Severity:        models.SeverityMedium,
			Recommendation:  "Apply at different times of day.",
			ScientificBasis: "Benzoyl peroxide can oxidize retinol, reducing its effectiveness.",
		},
		{
			IngredientAID:   ascorbic.ID,
			IngredientBID:   niacinamide.ID,
			ConflictType:    "pH interference",
			Severity:        models.SeverityLow,
			Recommendation:  "Modern formulations are generally fine together; separate if flushing occurs.",
			ScientificBasis: "The historic niacin conversion concern requires heat and low pH rarely present in finished products.",
		},
	}
	for _, conflict := range conflicts {
		record := conflict
		if err := db.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}

func floatPtr(v float64) *float64 {
	return &v
}
