package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"cosmatiqa/internal/analysis"
	applog "cosmatiqa/internal/log"
)

const (
	sessionUserIDKey    = "session:user:id"
	sessionUserEmailKey = "session:user:email"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	analyzer       *analysis.Analyzer
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB, a *analysis.Analyzer) {
	sessionManager = sm
	database = db
	analyzer = a
}

// currentUserID returns the acting user stored on the session, if any.
func currentUserID(r *http.Request) (uint, bool) {
	if sessionManager == nil {
		return 0, false
	}
	id := sessionManager.GetInt(r.Context(), sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
