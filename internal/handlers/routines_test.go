package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cosmatiqa/internal/analysis"
	"cosmatiqa/internal/compat"
	"cosmatiqa/models"
)

func TestAnalyzeRoutineHandler(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	t.Cleanup(withTestAnalyzer(t, db, nil))

	retinol := models.Ingredient{INCIName: "Retinol", Category: models.CategoryActive, IsActive: true}
	ascorbic := models.Ingredient{INCIName: "L-Ascorbic Acid", Category: models.CategoryActive, IsActive: true}
	if err := db.Create(&retinol).Error; err != nil {
		t.Fatalf("seed retinol: %v", err)
	}
	if err := db.Create(&ascorbic).Error; err != nil {
		t.Fatalf("seed ascorbic acid: %v", err)
	}
	if _, _, err := compat.New(db).UpsertLearned(context.Background(), retinol.ID, ascorbic.ID, compat.RecordFields{
		Severity: "severe",
	}); err != nil {
		t.Fatalf("seed knowledge base: %v", err)
	}

	body := strings.NewReader(`{
		"routine_name": "Daily Routine",
		"products": [
			{"name": "Vitamin C Serum", "ingredient_text": "L-Ascorbic Acid, Ferulic Acid", "usage_time": "AM"},
			{"name": "Retinol Cream", "ingredient_text": "Retinol", "usage_time": "PM"}
		]
	}`)
	req := sessionRequestFor(t, sm, httptest.NewRequest(http.MethodPost, "/api/routines/analyze", body), 1)
	w := httptest.NewRecorder()
	AnalyzeRoutine(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var summary analysis.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.ConflictsFound != 1 {
		t.Fatalf("conflicts = %d, want 1", summary.ConflictsFound)
	}
	if summary.SafetyScore != 7.0 || summary.SummaryGrade != "B+" {
		t.Fatalf("unexpected scoring %v/%q", summary.SafetyScore, summary.SummaryGrade)
	}
	if summary.AnalysisID == "" || summary.RoutineID == "" {
		t.Fatalf("expected public identifiers, got %+v", summary)
	}
}

func TestAnalyzeRoutineHandlerRequiresSession(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	t.Cleanup(withTestAnalyzer(t, db, nil))

	body := strings.NewReader(`{"products":[{"name":"Serum","ingredient_text":"Niacinamide","usage_time":"AM"}]}`)
	req := sessionRequestFor(t, sm, httptest.NewRequest(http.MethodPost, "/api/routines/analyze", body), 0)
	w := httptest.NewRecorder()
	AnalyzeRoutine(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAnalyzeRoutineHandlerRejectsEmptyRoutine(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	t.Cleanup(withTestAnalyzer(t, db, nil))

	body := strings.NewReader(`{"products":[{"name":"Mystery","ingredient_text":"  ","usage_time":"AM"}]}`)
	req := sessionRequestFor(t, sm, httptest.NewRequest(http.MethodPost, "/api/routines/analyze", body), 1)
	w := httptest.NewRecorder()
	AnalyzeRoutine(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeRoutineHandlerRejectsMalformedPayload(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	t.Cleanup(withTestAnalyzer(t, db, nil))

	req := sessionRequestFor(t, sm, httptest.NewRequest(http.MethodPost, "/api/routines/analyze", strings.NewReader("{not json")), 1)
	w := httptest.NewRecorder()
	AnalyzeRoutine(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeRoutineHandlerMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/routines/analyze", nil)
	w := httptest.NewRecorder()
	AnalyzeRoutine(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
