package handlers

import (
	"errors"
	"net/http"
	"strings"

	"cosmatiqa/internal/analysis"
	applog "cosmatiqa/internal/log"
	"cosmatiqa/models"
)

type analysisSummaryResponse struct {
	AnalysisID    string  `json:"analysis_id"`
	RiskTier      string  `json:"risk_tier"`
	SummaryGrade  string  `json:"summary_grade"`
	SafetyScore   float64 `json:"safety_score"`
	RiskScore     float64 `json:"risk_score"`
	ConflictCount int     `json:"conflict_count"`
	CreatedAt     string  `json:"created_at"`
}

// AnalysisResource serves stored analyses: the acting user's recent history at
// the collection root, and a full expanded result per public identifier.
func AnalysisResource(w http.ResponseWriter, r *http.Request) {
	if analyzer == nil {
		applog.Debug(r.Context(), "analysis request without analyzer")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "no active session")
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/analyses")
	path = strings.Trim(path, "/")

	if path == "" {
		listAnalyses(w, r, userID)
		return
	}
	showAnalysis(w, r, userID, path)
}

func listAnalyses(w http.ResponseWriter, r *http.Request, userID uint) {
	results, err := analyzer.ListRecentAnalyses(r.Context(), userID)
	if err != nil {
		applog.Error(r.Context(), "failed to list analyses", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load analysis history")
		return
	}

	responses := make([]analysisSummaryResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, projectAnalysisSummary(result))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showAnalysis(w http.ResponseWriter, r *http.Request, userID uint, publicID string) {
	results, err := analyzer.GetAnalysisResults(r.Context(), publicID)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to load analysis", "error", err, "id", publicID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load analysis")
		return
	}

	if results.Analysis.UserID != userID {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func projectAnalysisSummary(result models.AnalysisResult) analysisSummaryResponse {
	return analysisSummaryResponse{
		AnalysisID:    result.PublicID,
		RiskTier:      result.RiskTier,
		SummaryGrade:  result.SummaryGrade,
		SafetyScore:   result.SafetyScore,
		RiskScore:     result.RiskScore,
		ConflictCount: result.ConflictCount,
		CreatedAt:     result.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
