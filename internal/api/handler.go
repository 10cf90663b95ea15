// Package api provides HTTP handlers for the interview API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/mockinterview/internal/interview"
	"github.com/ashureev/mockinterview/internal/llm"
	"github.com/ashureev/mockinterview/internal/store"
	"github.com/go-chi/chi/v5"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps interview and store failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var verr *interview.ValidationError
	var uerr *llm.UpstreamError
	switch {
	case errors.As(err, &verr):
		Error(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrSessionNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.As(err, &uerr):
		logger.Error("Upstream model call failed", "op", op, "provider", uerr.Provider, "error", err)
		Error(w, http.StatusInternalServerError, uerr.Error())
	default:
		logger.Error("Request failed", "op", op, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Mount registers every API route under /api.
func Mount(r chi.Router, interviews *InterviewHandler, health *HealthHandler) {
	r.Route("/api", func(r chi.Router) {
		health.RegisterHealth(r)
		interviews.RegisterRoutes(r)
	})
}
