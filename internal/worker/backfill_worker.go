package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/observability/metrics"
	"github.com/yourorg/knowledgehub/internal/service"
)

// BackfillWorker periodically reconciles cursus purchases against their
// lessons. Lessons added to a cursus after it was purchased get their
// per-lesson purchase rows created here, so the single-lookup entitlement
// check stays truthful without any write on the catalog path.
type BackfillWorker struct {
	purchases   domain.PurchaseRepository
	catalog     domain.CatalogRepository
	entitlement *service.EntitlementService
	logger      *slog.Logger
	interval    time.Duration
}

// NewBackfillWorker creates a new backfill worker
func NewBackfillWorker(
	purchases domain.PurchaseRepository,
	catalog domain.CatalogRepository,
	entitlement *service.EntitlementService,
	logger *slog.Logger,
	interval time.Duration,
) *BackfillWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackfillWorker{
		purchases:   purchases,
		catalog:     catalog,
		entitlement: entitlement,
		logger:      logger,
		interval:    interval,
	}
}

// Start begins the reconciliation loop. Runs until ctx is cancelled.
func (w *BackfillWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("backfill worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("backfill worker stopped")
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

// reconcile walks every cursus purchase and inserts any missing lesson
// purchases. All inserts are insert-or-ignore, so overlapping runs and
// concurrent payment confirmations are harmless.
func (w *BackfillWorker) reconcile(ctx context.Context) {
	cursusPurchases, err := w.purchases.ListCursusPurchases(ctx)
	if err != nil {
		w.logger.Error("failed to list cursus purchases", slog.String("error", err.Error()))
		metrics.ObserveBackfillRun("error", 0)
		return
	}

	lessonsByCursus := make(map[string][]*domain.Lesson)
	created := 0
	touched := make(map[string]bool) // users with new rows, for cache invalidation

	for _, cp := range cursusPurchases {
		lessons, ok := lessonsByCursus[cp.CursusID]
		if !ok {
			lessons, err = w.catalog.ListLessonsByCursus(ctx, cp.CursusID)
			if err != nil {
				w.logger.Error("failed to list lessons for backfill",
					slog.String("cursus_id", cp.CursusID),
					slog.String("error", err.Error()),
				)
				metrics.ObserveBackfillRun("error", created)
				return
			}
			lessonsByCursus[cp.CursusID] = lessons
		}

		for _, lesson := range lessons {
			lp := &domain.Purchase{
				Kind:       domain.PurchaseKindLesson,
				UserID:     cp.UserID,
				LessonID:   lesson.ID,
				PaymentRef: cp.PaymentRef,
			}
			ok, err := w.purchases.CreateLessonPurchase(ctx, lp)
			if err != nil {
				w.logger.Error("failed to backfill lesson purchase",
					slog.String("user_id", cp.UserID),
					slog.String("lesson_id", lesson.ID),
					slog.String("error", err.Error()),
				)
				metrics.ObserveBackfillRun("error", created)
				return
			}
			if ok {
				created++
				touched[cp.UserID] = true
			}
		}
	}

	for userID := range touched {
		w.entitlement.InvalidateUser(ctx, userID)
	}

	metrics.ObserveBackfillRun("ok", created)
	if created > 0 {
		w.logger.Info("backfill reconciliation created missing lesson purchases",
			slog.Int("created", created),
			slog.Int("users_affected", len(touched)),
		)
	}
}
