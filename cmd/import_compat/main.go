package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cosmatiqa/internal/compat"
	"cosmatiqa/internal/config"
	"cosmatiqa/internal/db"
	"cosmatiqa/models"

	"gorm.io/gorm"
)

var (
	bracketPattern  = regexp.MustCompile(`\[[^\]]*\]`)
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

func main() {
	csvPath := "ingredient compatibility - seed.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	ctx := context.Background()
	created := 0
	skipped := 0
	for idx, record := range records {
		if err := database.Transaction(func(tx *gorm.DB) error {
			first, err := upsertIngredient(ctx, tx, sideInput{
				Name:     record["Ingredient A"],
				Aliases:  record["Aliases A"],
				Category: record["Category A"],
				PHMin:    record["pH Min A"],
				PHMax:    record["pH Max A"],
			})
			if err != nil {
				return err
			}

			second, err := upsertIngredient(ctx, tx, sideInput{
				Name:     record["Ingredient B"],
				Aliases:  record["Aliases B"],
				Category: record["Category B"],
				PHMin:    record["pH Min B"],
				PHMax:    record["pH Max B"],
			})
			if err != nil {
				return err
			}

			if first.ID == second.ID {
				return fmt.Errorf("pair resolves to a single ingredient %q", first.INCIName)
			}

			wasCreated, _, err := compat.New(tx).UpsertLearned(ctx, first.ID, second.ID, compat.RecordFields{
				ConflictType:    normalizeValue(record["Conflict Type"]),
				Severity:        record["Severity"],
				Recommendation:  normalizeText(record["Recommendation"]),
				ScientificBasis: normalizeText(record["Scientific Basis"]),
				Source:          "seed",
			})
			if err != nil {
				return err
			}
			if wasCreated {
				created++
			} else {
				skipped++
			}
			return nil
		}); err != nil {
			return fmt.Errorf("record %d (%s / %s): %w", idx+1, record["Ingredient A"], record["Ingredient B"], err)
		}
	}

	fmt.Fprintf(os.Stdout, "Imported %d compatibility pairs (%d already known) from %s\n", created, skipped, filepath.Base(csvPath))
	return nil
}

type sideInput struct {
	Name     string
	Aliases  string
	Category string
	PHMin    string
	PHMax    string
}

// upsertIngredient finds or creates the ingredient by its canonical INCI name
// and merges aliases and property data without discarding anything already
// stored.
func upsertIngredient(ctx context.Context, tx *gorm.DB, input sideInput) (*models.Ingredient, error) {
	name := normalizeText(input.Name)
	if name == "" {
		return nil, errors.New("ingredient name must not be empty")
	}

	var existing models.Ingredient
	err := tx.WithContext(ctx).Where("lower(inci_name) = ?", strings.ToLower(name)).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find ingredient %q: %w", name, err)
	}

	category := mapCategory(input.Category)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		existing = models.Ingredient{
			INCIName: name,
			Category: category,
			IsActive: category == models.CategoryActive,
		}
		if err := tx.WithContext(ctx).Create(&existing).Error; err != nil {
			return nil, fmt.Errorf("create ingredient %q: %w", name, err)
		}
	} else if category != models.CategoryBase && existing.Category != category {
		updates := map[string]any{"category": category}
		if category == models.CategoryActive {
			updates["is_active"] = true
		}
		if err := tx.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update ingredient %q: %w", name, err)
		}
	}

	combined, err := aggregateAliases(tx, existing.ID, existing.INCIName, buildAliases(input.Aliases))
	if err != nil {
		return nil, fmt.Errorf("prepare aliases for %q: %w", name, err)
	}
	if len(combined) > 0 {
		target := models.Ingredient{}
		target.ID = existing.ID
		if err := tx.Model(&target).Association("CommonNames").Replace(combined); err != nil {
			return nil, fmt.Errorf("replace aliases for %q: %w", name, err)
		}
	}

	if err := upsertProperties(ctx, tx, existing.ID, input); err != nil {
		return nil, fmt.Errorf("properties for %q: %w", name, err)
	}

	return &existing, nil
}

func upsertProperties(ctx context.Context, tx *gorm.DB, ingredientID uint, input sideInput) error {
	phMin := parsePH(input.PHMin)
	phMax := parsePH(input.PHMax)
	if phMin == nil && phMax == nil {
		return nil
	}

	var props models.IngredientProperties
	err := tx.WithContext(ctx).Where("ingredient_id = ?", ingredientID).First(&props).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		props = models.IngredientProperties{IngredientID: ingredientID, PHMin: phMin, PHMax: phMax}
		return tx.WithContext(ctx).Create(&props).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if props.PHMin == nil && phMin != nil {
		updates["ph_min"] = *phMin
	}
	if props.PHMax == nil && phMax != nil {
		updates["ph_max"] = *phMax
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Model(&props).Updates(updates).Error
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[idx])
			record[key] = value
		}
		records = append(records, record)
	}

	return records, nil
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	value = cleanWhitespace.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

func parsePH(value string) *float64 {
	value = normalizeValue(value)
	if value == "" {
		return nil
	}

	match := numberPattern.FindString(value)
	if match == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil || parsed < 0 || parsed > 14 {
		return nil
	}
	return &parsed
}

func mapCategory(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active", "actives", "exfoliant", "retinoid":
		return models.CategoryActive
	case "preservative":
		return models.CategoryPreservative
	case "fragrance", "parfum":
		return models.CategoryFragrance
	default:
		return models.CategoryBase
	}
}

func buildAliases(value string) []models.CommonName {
	value = normalizeValue(value)
	if value == "" {
		return nil
	}

	parts := splitAliases(value)
	names := make([]models.CommonName, 0, len(parts))
	seen := map[string]struct{}{}
	for _, part := range parts {
		clean := stripFootnotes(strings.TrimSpace(part))
		clean = strings.Trim(clean, ";,")
		clean = strings.TrimSpace(clean)
		if clean == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(clean)]; ok {
			continue
		}
		seen[strings.ToLower(clean)] = struct{}{}
		names = append(names, models.CommonName{Name: clean})
	}
	return names
}

func splitAliases(value string) []string {
	value = strings.ReplaceAll(value, ";", ",")
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		result = append(result, strings.TrimSpace(part))
	}
	return result
}

func stripFootnotes(value string) string {
	return strings.TrimSpace(bracketPattern.ReplaceAllString(value, ""))
}

func aggregateAliases(tx *gorm.DB, ingredientID uint, canonical string, incoming []models.CommonName) ([]models.CommonName, error) {
	var current []models.CommonName
	if err := tx.Where("ingredient_id = ?", ingredientID).Find(&current).Error; err != nil {
		return nil, err
	}

	nameMap := make(map[string]string)

	addName := func(value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if strings.EqualFold(value, canonical) {
			return
		}
		key := strings.ToLower(value)
		if _, ok := nameMap[key]; !ok {
			nameMap[key] = value
		}
	}

	for _, entry := range current {
		addName(entry.Name)
	}
	for _, entry := range incoming {
		addName(entry.Name)
	}

	if len(nameMap) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(nameMap))
	for key := range nameMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	combined := make([]models.CommonName, 0, len(keys))
	for _, key := range keys {
		combined = append(combined, models.CommonName{
			Name:         nameMap[key],
			IngredientID: ingredientID,
		})
	}

	return combined, nil
}
