package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/infrastructure/payment"
	"github.com/yourorg/knowledgehub/internal/observability/metrics"
)

// CheckoutService starts payment sessions at the provider. It only prices
// and names the item; recording the purchase happens later, when the
// confirmation callback hits PurchaseService.
type CheckoutService struct {
	catalog  domain.CatalogRepository
	provider *payment.Client
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(catalog domain.CatalogRepository, provider *payment.Client, logger *slog.Logger) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{catalog: catalog, provider: provider, logger: logger}
}

// StartLessonCheckout creates a checkout session for a single lesson.
func (s *CheckoutService) StartLessonCheckout(ctx context.Context, lessonID, successURL, cancelURL string) (*payment.Session, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		ItemName:   fmt.Sprintf("Lesson: %s", lesson.Title),
		Price:      lesson.Price,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		metrics.ObserveCheckoutSession(string(domain.PurchaseKindLesson), "error")
		return nil, err
	}
	metrics.ObserveCheckoutSession(string(domain.PurchaseKindLesson), "created")
	return session, nil
}

// StartCursusCheckout creates a checkout session for a whole cursus.
func (s *CheckoutService) StartCursusCheckout(ctx context.Context, cursusID, successURL, cancelURL string) (*payment.Session, error) {
	cursus, err := s.catalog.GetCursus(ctx, cursusID)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		ItemName:   fmt.Sprintf("Cursus: %s", cursus.Title),
		Price:      cursus.Price,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		metrics.ObserveCheckoutSession(string(domain.PurchaseKindCursus), "error")
		return nil, err
	}
	metrics.ObserveCheckoutSession(string(domain.PurchaseKindCursus), "created")
	return session, nil
}
