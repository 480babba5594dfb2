package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/events"
	"github.com/yourorg/knowledgehub/internal/observability/metrics"
	"github.com/yourorg/knowledgehub/internal/security/audit"
)

// PurchaseService records confirmed payments as entitlement rows. Every
// entry point is idempotent: replaying a payment confirmation never creates
// a second purchase for the same (user, item) pair.
type PurchaseService struct {
	purchases   domain.PurchaseRepository
	catalog     domain.CatalogRepository
	entitlement *EntitlementService
	bus         *events.Bus
	auditLog    *audit.Logger
	logger      *slog.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(purchases domain.PurchaseRepository, catalog domain.CatalogRepository, entitlement *EntitlementService, bus *events.Bus, auditLog *audit.Logger, logger *slog.Logger) *PurchaseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurchaseService{
		purchases:   purchases,
		catalog:     catalog,
		entitlement: entitlement,
		bus:         bus,
		auditLog:    auditLog,
		logger:      logger,
	}
}

// RecordLessonPurchase records a confirmed payment for a single lesson.
// A replay returns the original purchase row unchanged.
func (s *PurchaseService) RecordLessonPurchase(ctx context.Context, userID, lessonID, paymentRef string) (*domain.Purchase, bool, error) {
	if _, err := s.catalog.GetLesson(ctx, lessonID); err != nil {
		return nil, false, err
	}

	p := &domain.Purchase{
		Kind:       domain.PurchaseKindLesson,
		UserID:     userID,
		LessonID:   lessonID,
		PaymentRef: paymentRef,
	}
	created, err := s.purchases.CreateLessonPurchase(ctx, p)
	if err != nil {
		return nil, false, err
	}
	metrics.ObservePurchase(string(domain.PurchaseKindLesson), created)

	if created {
		s.entitlement.InvalidateUser(ctx, userID)
		s.publish(events.TypePurchaseRecorded, userID, lessonID, "")
		s.auditLog.LogPurchase(ctx, userID, string(domain.PurchaseKindLesson), lessonID, "created", paymentRef)
		s.logger.Info("lesson purchase recorded", "user_id", userID, "lesson_id", lessonID)
		return p, true, nil
	}

	existing, err := s.purchases.GetLessonPurchase(ctx, userID, lessonID)
	if err != nil {
		return nil, false, err
	}
	s.auditLog.LogPurchase(ctx, userID, string(domain.PurchaseKindLesson), lessonID, "duplicate", paymentRef)
	return existing, false, nil
}

// RecordCursusPurchase records a confirmed payment for an entire cursus and
// backfills per-lesson purchases so entitlement checks stay one lookup. The
// backfill also runs on replay, covering lessons added since the original
// purchase.
func (s *PurchaseService) RecordCursusPurchase(ctx context.Context, userID, cursusID, paymentRef string) (*domain.CursusPurchaseResult, error) {
	if _, err := s.catalog.GetCursus(ctx, cursusID); err != nil {
		return nil, err
	}
	lessons, err := s.catalog.ListLessonsByCursus(ctx, cursusID)
	if err != nil {
		return nil, err
	}

	p := &domain.Purchase{
		Kind:       domain.PurchaseKindCursus,
		UserID:     userID,
		CursusID:   cursusID,
		PaymentRef: paymentRef,
	}
	result, err := s.purchases.CreateCursusPurchase(ctx, p, lessons)
	if err != nil {
		return nil, err
	}
	metrics.ObservePurchase(string(domain.PurchaseKindCursus), result.CursusCreated)

	status := "duplicate"
	if result.CursusCreated {
		status = "created"
	}
	s.auditLog.LogPurchase(ctx, userID, string(domain.PurchaseKindCursus), cursusID, status, paymentRef)

	if result.CursusCreated || result.LessonsCreated > 0 {
		s.entitlement.InvalidateUser(ctx, userID)
		s.publish(events.TypePurchaseRecorded, userID, "", cursusID)
		s.logger.Info("cursus purchase recorded",
			"user_id", userID,
			"cursus_id", cursusID,
			"lessons_backfilled", result.LessonsCreated,
		)
	}

	return result, nil
}

// ListPurchases returns all purchases of a user, newest first
func (s *PurchaseService) ListPurchases(ctx context.Context, userID string) ([]*domain.Purchase, error) {
	return s.purchases.ListByUser(ctx, userID)
}

func (s *PurchaseService) publish(eventType events.Type, userID, lessonID, cursusID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:       eventType,
		UserID:     userID,
		LessonID:   lessonID,
		CursusID:   cursusID,
		OccurredAt: time.Now(),
	})
}
