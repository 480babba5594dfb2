package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/knowledgehub/internal/reliability/circuitbreaker"
	"github.com/yourorg/knowledgehub/internal/security/middleware"
	"github.com/yourorg/knowledgehub/internal/service"
)

// CheckoutHandler starts checkout sessions at the payment provider.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

type checkoutRequest struct {
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// StartLessonCheckout handles POST /api/checkout/lessons/{id}
func (h *CheckoutHandler) StartLessonCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	session, err := h.checkout.StartLessonCheckout(r.Context(), r.PathValue("id"), req.SuccessURL, req.CancelURL)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// StartCursusCheckout handles POST /api/checkout/cursuses/{id}
func (h *CheckoutHandler) StartCursusCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	session, err := h.checkout.StartCursusCheckout(r.Context(), r.PathValue("id"), req.SuccessURL, req.CancelURL)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		writeError(w, http.StatusServiceUnavailable, "payment provider unavailable")
		return
	}
	writeDomainError(w, h.logger, err)
}

// PaymentHandler records confirmed payments. This is the success-callback
// leg of the checkout flow: the caller must be the authenticated buyer, and
// replays are absorbed by the idempotent purchase service.
type PaymentHandler struct {
	purchases *service.PurchaseService
	logger    *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(purchases *service.PurchaseService, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{purchases: purchases, logger: logger}
}

type confirmRequest struct {
	SessionID string `json:"sessionId"`
}

// ConfirmLesson handles POST /api/payments/lessons/{id}/confirm
func (h *PaymentHandler) ConfirmLesson(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	purchase, created, err := h.purchases.RecordLessonPurchase(r.Context(), claims.UserID, r.PathValue("id"), req.SessionID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, purchase)
}

// ConfirmCursus handles POST /api/payments/cursuses/{id}/confirm
func (h *PaymentHandler) ConfirmCursus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.purchases.RecordCursusPurchase(r.Context(), claims.UserID, r.PathValue("id"), req.SessionID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.CursusCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
