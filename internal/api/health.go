package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/mockinterview/internal/store"
	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo          store.Repository
	llmProvider   string
	llmConfigured bool
	logger        *slog.Logger
}

// NewHealthHandler creates a health handler reporting on repo and the configured provider.
func NewHealthHandler(repo store.Repository, llmProvider string, llmConfigured bool, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{repo: repo, llmProvider: llmProvider, llmConfigured: llmConfigured, logger: logger}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok", "store": "ok"}
	status := map[string]interface{}{
		"status":         "healthy",
		"llm_provider":   h.llmProvider,
		"llm_configured": h.llmConfigured,
		"checks":         checks,
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		h.logger.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["store"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
