package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/security/middleware"
	"github.com/yourorg/knowledgehub/internal/service"
)

// AccountHandler serves the authenticated user's own records.
type AccountHandler struct {
	purchases   *service.PurchaseService
	validations *service.ValidationService
	logger      *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(purchases *service.PurchaseService, validations *service.ValidationService, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{purchases: purchases, validations: validations, logger: logger}
}

// ListPurchases handles GET /api/me/purchases
func (h *AccountHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	purchases, err := h.purchases.ListPurchases(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if purchases == nil {
		purchases = []*domain.Purchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}

// ListCertifications handles GET /api/me/certifications
func (h *AccountHandler) ListCertifications(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	certs, err := h.validations.ListCertifications(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if certs == nil {
		certs = []*domain.Certification{}
	}
	writeJSON(w, http.StatusOK, certs)
}
