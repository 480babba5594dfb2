package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/featureflags"
	"github.com/yourorg/knowledgehub/internal/infrastructure/redis"
	"github.com/yourorg/knowledgehub/internal/observability/metrics"
)

// EntitlementService answers the single question the rest of the engine
// hangs off: may this user access this lesson right now. A user is entitled
// to a lesson when they bought the lesson itself or the cursus containing it.
type EntitlementService struct {
	purchases domain.PurchaseRepository
	catalog   domain.CatalogRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewEntitlementService creates a new entitlement service. cache may be nil;
// lookups then always hit the database.
func NewEntitlementService(purchases domain.PurchaseRepository, catalog domain.CatalogRepository, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *EntitlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementService{
		purchases: purchases,
		catalog:   catalog,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func entitlementKey(userID, lessonID string) string {
	return fmt.Sprintf("entitlement:%s:%s", userID, lessonID)
}

// IsEntitled reports whether the user may access the lesson. Returns
// domain.ErrNotFound when the lesson does not exist.
func (s *EntitlementService) IsEntitled(ctx context.Context, userID, lessonID string) (bool, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return false, err
	}

	useCache := s.cache != nil && featureflags.EnabledDefault(featureflags.EntitlementCache, true)
	key := entitlementKey(userID, lessonID)

	if useCache {
		val, err := s.cache.Get(ctx, key)
		if err == nil {
			metrics.ObserveEntitlementCache("hit")
			return val == "1", nil
		}
		if !redis.IsMiss(err) {
			s.logger.Warn("entitlement cache read failed", "error", err, "key", key)
		}
		metrics.ObserveEntitlementCache("miss")
	}

	entitled, err := s.purchases.HasLessonPurchase(ctx, userID, lessonID)
	if err != nil {
		return false, err
	}
	if !entitled {
		entitled, err = s.purchases.HasCursusPurchase(ctx, userID, lesson.CursusID)
		if err != nil {
			return false, err
		}
	}

	if useCache {
		val := "0"
		if entitled {
			val = "1"
		}
		if err := s.cache.Set(ctx, key, val, s.cacheTTL); err != nil {
			s.logger.Warn("entitlement cache write failed", "error", err, "key", key)
		}
	}

	return entitled, nil
}

// InvalidateUser drops all cached entitlement answers for a user. Called
// after any purchase so newly granted access is visible immediately.
func (s *EntitlementService) InvalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("entitlement:%s:*", userID)
	keys, err := s.cache.Keys(ctx, pattern)
	if err != nil {
		s.logger.Warn("entitlement cache scan failed", "error", err, "user_id", userID)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("entitlement cache invalidation failed", "error", err, "user_id", userID)
	}
}
