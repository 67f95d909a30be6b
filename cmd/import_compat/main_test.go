package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cosmatiqa/internal/compat"
	"cosmatiqa/models"
)

func newImporterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:import-compat-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(
		&models.Ingredient{},
		&models.CommonName{},
		&models.IngredientProperties{},
		&models.CompatibilityRecord{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func TestReadCSVBuildsHeaderKeyedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.csv")
	contents := "Ingredient A,Ingredient B,Severity\nRetinol,  L-Ascorbic Acid ,severe\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := readCSV(path)
	if err != nil {
		t.Fatalf("readCSV returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0]["Ingredient B"] != "L-Ascorbic Acid" {
		t.Fatalf("expected trimmed cell value, got %q", records[0]["Ingredient B"])
	}
	if records[0]["Severity"] != "severe" {
		t.Fatalf("unexpected severity cell: %q", records[0]["Severity"])
	}
}

func TestParsePH(t *testing.T) {
	cases := []struct {
		input string
		want  *float64
	}{
		{input: "", want: nil},
		{input: "N/A", want: nil},
		{input: "5.5", want: floatPtr(5.5)},
		{input: "~3.2 (formulated)", want: floatPtr(3.2)},
		{input: "22", want: nil},
	}

	for _, tc := range cases {
		got := parsePH(tc.input)
		switch {
		case tc.want == nil && got != nil:
			t.Fatalf("parsePH(%q) = %v, want nil", tc.input, *got)
		case tc.want != nil && got == nil:
			t.Fatalf("parsePH(%q) = nil, want %v", tc.input, *tc.want)
		case tc.want != nil && *got != *tc.want:
			t.Fatalf("parsePH(%q) = %v, want %v", tc.input, *got, *tc.want)
		}
	}
}

func TestMapCategory(t *testing.T) {
	cases := map[string]string{
		"Active":       models.CategoryActive,
		"retinoid":     models.CategoryActive,
		"Preservative": models.CategoryPreservative,
		"Parfum":       models.CategoryFragrance,
		"humectant":    models.CategoryBase,
		"":             models.CategoryBase,
	}
	for input, want := range cases {
		if got := mapCategory(input); got != want {
			t.Fatalf("mapCategory(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildAliasesDeduplicatesAndStripsFootnotes(t *testing.T) {
	aliases := buildAliases("Vitamin A [see note]; vitamin a, Retinyl")
	if len(aliases) != 2 {
		t.Fatalf("expected 2 aliases, got %d", len(aliases))
	}
	if aliases[0].Name != "Vitamin A" {
		t.Fatalf("expected footnote stripped, got %q", aliases[0].Name)
	}
	if aliases[1].Name != "Retinyl" {
		t.Fatalf("unexpected second alias %q", aliases[1].Name)
	}
}

func TestUpsertIngredientMergesAliasesAndProperties(t *testing.T) {
	db := newImporterTestDB(t)
	ctx := context.Background()

	first, err := upsertIngredient(ctx, db, sideInput{
		Name:     "Retinol",
		Aliases:  "Vitamin A",
		Category: "active",
		PHMin:    "5.0",
	})
	if err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}
	if !first.IsActive {
		t.Fatal("expected active flag for active category")
	}

	second, err := upsertIngredient(ctx, db, sideInput{
		Name:    "retinol",
		Aliases: "Vitamin A; Retinyl Alcohol",
		PHMax:   "6.5",
	})
	if err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected case-insensitive match on INCI name, got ids %d and %d", first.ID, second.ID)
	}

	var aliases []models.CommonName
	if err := db.Where("ingredient_id = ?", first.ID).Find(&aliases).Error; err != nil {
		t.Fatalf("load aliases: %v", err)
	}
	if len(aliases) != 2 {
		t.Fatalf("expected merged alias set of 2, got %d", len(aliases))
	}

	var props models.IngredientProperties
	if err := db.Where("ingredient_id = ?", first.ID).First(&props).Error; err != nil {
		t.Fatalf("load properties: %v", err)
	}
	if props.PHMin == nil || *props.PHMin != 5.0 {
		t.Fatalf("expected pH min 5.0 to survive, got %v", props.PHMin)
	}
	if props.PHMax == nil || *props.PHMax != 6.5 {
		t.Fatalf("expected pH max 6.5 to be filled in, got %v", props.PHMax)
	}
}

func TestSeedPairNormalizesSeverityAndWinsFirst(t *testing.T) {
	db := newImporterTestDB(t)
	ctx := context.Background()

	retinol, err := upsertIngredient(ctx, db, sideInput{Name: "Retinol", Category: "active"})
	if err != nil {
		t.Fatalf("upsert retinol: %v", err)
	}
	ascorbic, err := upsertIngredient(ctx, db, sideInput{Name: "L-Ascorbic Acid", Category: "active"})
	if err != nil {
		t.Fatalf("upsert ascorbic: %v", err)
	}

	kb := compat.New(db)
	created, _, err := kb.UpsertLearned(ctx, retinol.ID, ascorbic.ID, compat.RecordFields{
		ConflictType: "ph_incompatibility",
		Severity:     "severe",
		Source:       "seed",
	})
	if err != nil {
		t.Fatalf("seed pair: %v", err)
	}
	if !created {
		t.Fatal("expected first seed write to create the record")
	}

	created, _, err = kb.UpsertLearned(ctx, ascorbic.ID, retinol.ID, compat.RecordFields{
		ConflictType: "something_else",
		Severity:     "low",
		Source:       "seed",
	})
	if err != nil {
		t.Fatalf("re-seed pair: %v", err)
	}
	if created {
		t.Fatal("expected reversed-order re-seed to be skipped")
	}

	record, err := kb.FindConflict(ctx, retinol.ID, ascorbic.ID)
	if err != nil {
		t.Fatalf("find pair: %v", err)
	}
	if record == nil {
		t.Fatal("expected seeded record to exist")
	}
	if record.Severity != models.SeverityHigh {
		t.Fatalf("expected severity %q, got %q", models.SeverityHigh, record.Severity)
	}
	if record.ConflictType != "ph_incompatibility" {
		t.Fatalf("expected first write to win, got conflict type %q", record.ConflictType)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
