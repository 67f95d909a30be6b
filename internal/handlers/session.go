package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	applog "cosmatiqa/internal/log"
	"cosmatiqa/models"
)

type sessionRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sessionResponse struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Session manages the acting-user session. POST identifies the caller by
// email, creating the account on first sight; GET reports the current session;
// DELETE ends it.
func Session(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sessions are not available")
		return
	}

	switch r.Method {
	case http.MethodPost:
		startSession(w, r)
	case http.MethodGet:
		showSession(w, r)
	case http.MethodDelete:
		endSession(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func startSession(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	var payload sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid session payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		writeJSONError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	user, err := findOrCreateUser(r, email, payload.Name)
	if err != nil {
		applog.Error(r.Context(), "failed to resolve session user", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to start session")
		return
	}

	if err := sessionManager.RenewToken(r.Context()); err != nil {
		applog.Error(r.Context(), "failed to renew session token", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to start session")
		return
	}
	sessionManager.Put(r.Context(), sessionUserIDKey, int(user.ID))
	sessionManager.Put(r.Context(), sessionUserEmailKey, user.Email)

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

func showSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID: userID,
		Email:  sessionManager.GetString(r.Context(), sessionUserEmailKey),
	})
}

func endSession(w http.ResponseWriter, r *http.Request) {
	if err := sessionManager.Destroy(r.Context()); err != nil {
		applog.Error(r.Context(), "failed to destroy session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func findOrCreateUser(r *http.Request, email, name string) (*models.User, error) {
	user := &models.User{}
	err := database.WithContext(r.Context()).Where("lower(email) = ?", email).First(user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &models.User{
		Email: email,
		Name:  strings.TrimSpace(name),
	}
	if err := database.WithContext(r.Context()).Create(user).Error; err != nil {
		// Concurrent first sign-in for the same address.
		var existing models.User
		if lookupErr := database.WithContext(r.Context()).Where("lower(email) = ?", email).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return user, nil
}

// RequireSession rejects requests that do not carry an acting user.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUserID(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "no active session")
			return
		}
		next.ServeHTTP(w, r)
	})
}
