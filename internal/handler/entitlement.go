package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/knowledgehub/internal/security/middleware"
	"github.com/yourorg/knowledgehub/internal/service"
)

// EntitlementHandler answers access checks for the authenticated user.
type EntitlementHandler struct {
	entitlement *service.EntitlementService
	logger      *slog.Logger
}

// NewEntitlementHandler creates a new entitlement handler
func NewEntitlementHandler(entitlement *service.EntitlementService, logger *slog.Logger) *EntitlementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementHandler{entitlement: entitlement, logger: logger}
}

// CheckLesson handles GET /api/lessons/{id}/entitlement
func (h *EntitlementHandler) CheckLesson(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	lessonID := r.PathValue("id")
	entitled, err := h.entitlement.IsEntitled(r.Context(), claims.UserID, lessonID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lessonId": lessonID,
		"entitled": entitled,
	})
}
