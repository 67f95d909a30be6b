package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"cosmatiqa/internal/handlers"
	applog "cosmatiqa/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/api/session", handlers.Session)
	applog.Debug(context.Background(), "route registered", "path", "/api/session")
	mux.Handle("/api/routines/analyze", handlers.RequireSession(http.HandlerFunc(handlers.AnalyzeRoutine)))
	applog.Debug(context.Background(), "route registered", "path", "/api/routines/analyze")
	mux.Handle("/api/analyses", handlers.RequireSession(http.HandlerFunc(handlers.AnalysisResource)))
	mux.Handle("/api/analyses/", handlers.RequireSession(http.HandlerFunc(handlers.AnalysisResource)))
	applog.Debug(context.Background(), "route registered", "path", "/api/analyses")
	mux.Handle("/api/research", handlers.RequireSession(http.HandlerFunc(handlers.ResearchPair)))
	applog.Debug(context.Background(), "route registered", "path", "/api/research")
	mux.Handle("/api/labels/extract", handlers.RequireSession(http.HandlerFunc(handlers.ExtractLabel)))
	applog.Debug(context.Background(), "route registered", "path", "/api/labels/extract")
	return mux
}

// requestID tags every request with an identifier that rides the context into
// each log line emitted while handling it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(applog.WithRequestID(r.Context(), id)))
	})
}
