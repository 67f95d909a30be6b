package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cosmatiqa/internal/ai"
	"cosmatiqa/internal/research"
	"cosmatiqa/models"
)

func TestResearchPairHandler(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	niacinamide := models.Ingredient{INCIName: "Niacinamide", Category: models.CategoryActive, IsActive: true}
	ascorbic := models.Ingredient{INCIName: "L-Ascorbic Acid", Category: models.CategoryActive, IsActive: true}
	if err := db.Create(&niacinamide).Error; err != nil {
		t.Fatalf("seed niacinamide: %v", err)
	}
	if err := db.Create(&ascorbic).Error; err != nil {
		t.Fatalf("seed ascorbic acid: %v", err)
	}

	advisor := &stubResearchAdvisor{
		research: &ai.PairResearch{
			Compatible:      true,
			Confidence:      0.8,
			ResearchSummary: "Generally fine in modern formulations.",
		},
	}
	t.Cleanup(withTestAnalyzer(t, db, advisor))

	target := fmt.Sprintf("/api/research?ingredient_a=%d&ingredient_b=%d", niacinamide.ID, ascorbic.ID)
	req := sessionRequestFor(t, sm, httptest.NewRequest(http.MethodGet, target, nil), 1)
	w := httptest.NewRecorder()
	ResearchPair(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var entry research.Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.Response != "Generally fine in modern formulations." {
		t.Fatalf("response = %q", entry.Response)
	}
	if entry.Confidence != 0.8 {
		t.Fatalf("confidence = %v, want 0.8", entry.Confidence)
	}
}

func TestResearchPairHandlerValidatesQuery(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	t.Cleanup(withTestAnalyzer(t, db, nil))

	cases := []string{
		"/api/research",
		"/api/research?ingredient_a=abc&ingredient_b=2",
		"/api/research?ingredient_a=0&ingredient_b=2",
		"/api/research?ingredient_a=3&ingredient_b=3",
	}
	for _, target := range cases {
		req := sessionRequestFor(t, sm, httptest.NewRequest(http.MethodGet, target, nil), 1)
		w := httptest.NewRecorder()
		ResearchPair(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestResearchPairHandlerWithoutAdvisor(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	t.Cleanup(withTestAnalyzer(t, db, nil))

	req := sessionRequestFor(t, sm, httptest.NewRequest(http.MethodGet, "/api/research?ingredient_a=1&ingredient_b=2", nil), 1)
	w := httptest.NewRecorder()
	ResearchPair(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when no research is available, got %d", w.Code)
	}
}
