package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cosmatiqa/internal/handlers"
)

func TestNewRouterRegistersHealthRoute(t *testing.T) {
	router := newRouter()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to return 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
}

func TestRouterRejectsUnauthenticatedAPIRoutes(t *testing.T) {
	handlers.Configure(nil, nil, nil)
	t.Cleanup(func() {
		handlers.Configure(nil, nil, nil)
	})
	router := newRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/routines/analyze"},
		{http.MethodGet, "/api/analyses"},
		{http.MethodGet, "/api/analyses/some-id"},
		{http.MethodGet, "/api/research"},
		{http.MethodPost, "/api/labels/extract"},
	}

	for _, route := range routes {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, nil)
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without a session = %d, want %d", route.method, route.path, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get("X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	requestID(next).ServeHTTP(rr, req)
	if seen == "" {
		t.Fatal("expected a generated request id")
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "given-id")
	requestID(next).ServeHTTP(rr, req)
	if seen != "given-id" {
		t.Fatalf("expected provided request id to be preserved, got %q", seen)
	}
}
