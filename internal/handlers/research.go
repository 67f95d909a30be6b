package handlers

import (
	"net/http"
	"strconv"
	"strings"

	applog "cosmatiqa/internal/log"
)

// ResearchPair returns cached compatibility research for an ingredient pair,
// consulting the advisory model on a miss.
func ResearchPair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if analyzer == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "no active session")
		return
	}

	idA, okA := parseIngredientID(r.URL.Query().Get("ingredient_a"))
	idB, okB := parseIngredientID(r.URL.Query().Get("ingredient_b"))
	if !okA || !okB {
		writeJSONError(w, http.StatusBadRequest, "ingredient_a and ingredient_b must be positive ingredient identifiers")
		return
	}
	if idA == idB {
		writeJSONError(w, http.StatusBadRequest, "two distinct ingredients are required")
		return
	}

	entry, err := analyzer.ResearchIngredientPair(r.Context(), idA, idB)
	if err != nil {
		applog.Error(r.Context(), "pair research failed", "error", err, "ingredientA", idA, "ingredientB", idB)
		writeJSONError(w, http.StatusInternalServerError, "unable to research ingredient pair")
		return
	}
	if entry == nil {
		writeJSONError(w, http.StatusNotFound, "no research available for this pair")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func parseIngredientID(raw string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}
