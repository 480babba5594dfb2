package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/security/middleware"
	"github.com/yourorg/knowledgehub/internal/service"
)

// ValidationHandler marks lessons as completed for the authenticated user.
type ValidationHandler struct {
	validations *service.ValidationService
	logger      *slog.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(validations *service.ValidationService, logger *slog.Logger) *ValidationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationHandler{validations: validations, logger: logger}
}

// ValidateLesson handles POST /api/lessons/{id}/validate
func (h *ValidationHandler) ValidateLesson(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	result, err := h.validations.ValidateLesson(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Outcome != domain.OutcomeAlreadyValidated {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
