package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/knowledgehub/internal/infrastructure/redis"
	"github.com/yourorg/knowledgehub/pkg/database"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	pool        *database.ConnectionPool
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewHealthHandler creates a new health handler. redisClient may be nil.
func NewHealthHandler(pool *database.ConnectionPool, redisClient *redis.Client, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{pool: pool, redisClient: redisClient, logger: logger}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - returns 200 only if dependencies are healthy
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if err := h.pool.Health(ctx); err != nil {
		checks["postgres"] = "unavailable"
		ready = false
		h.logger.Warn("readiness check: postgres unavailable", slog.String("error", err.Error()))
	} else {
		checks["postgres"] = "ok"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx); err != nil {
			checks["redis"] = "unavailable"
			ready = false
			h.logger.Warn("readiness check: redis unavailable", slog.String("error", err.Error()))
		} else {
			checks["redis"] = "ok"
		}
	}

	status := "ready"
	code := http.StatusOK
	if !ready {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, ReadinessResponse{Status: status, Checks: checks})
}
