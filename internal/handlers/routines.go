package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cosmatiqa/internal/ai"
	"cosmatiqa/internal/analysis"
	applog "cosmatiqa/internal/log"
)

type analyzeRoutineRequest struct {
	RoutineName string                  `json:"routine_name"`
	Products    []analysis.ProductInput `json:"products"`
}

// AnalyzeRoutine runs a full routine analysis for the acting user.
func AnalyzeRoutine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if analyzer == nil {
		applog.Debug(r.Context(), "routine analysis request without analyzer")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "no active session")
		return
	}

	var payload analyzeRoutineRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid routine analysis payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	summary, err := analyzer.AnalyzeRoutine(r.Context(), userID, payload.RoutineName, payload.Products)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrNoValidProducts):
			writeJSONError(w, http.StatusBadRequest, "at least one product with a name and ingredient list is required")
		case errors.Is(err, analysis.ErrNoIngredients):
			writeJSONError(w, http.StatusBadRequest, "no recognizable ingredients were found in the routine")
		case errors.Is(err, ai.ErrMalformedAnalysis):
			applog.Error(r.Context(), "advisory returned malformed analysis", "error", err)
			writeJSONError(w, http.StatusBadGateway, "the analysis service returned an unreadable response, please retry")
		default:
			applog.Error(r.Context(), "routine analysis failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to analyze routine")
		}
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}
