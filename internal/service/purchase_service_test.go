package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/events"
	"github.com/yourorg/knowledgehub/internal/security/audit"
)

func newPurchaseFixture(t *testing.T) (*PurchaseService, *memPurchaseRepo, *domain.Cursus, []*domain.Lesson) {
	t.Helper()
	catalog := newMemCatalogRepo()
	purchases := newMemPurchaseRepo()
	cursus, lessons := fixture(catalog, 40.00, 20.00, 20.00)

	entitlement := NewEntitlementService(purchases, catalog, nil, 0, nil)
	svc := NewPurchaseService(purchases, catalog, entitlement, events.NewBus(nil), audit.NewLogger(nil), nil)
	return svc, purchases, cursus, lessons
}

func TestRecordLessonPurchaseIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _, lessons := newPurchaseFixture(t)

	first, created, err := svc.RecordLessonPurchase(ctx, "buyer@example.com", lessons[0].ID, "sess-1")
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)

	// Replaying the confirmation returns the original row
	replay, created, err := svc.RecordLessonPurchase(ctx, "buyer@example.com", lessons[0].ID, "sess-1-retry")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, "sess-1", replay.PaymentRef)
}

func TestRecordLessonPurchaseUnknownLesson(t *testing.T) {
	svc, _, _, _ := newPurchaseFixture(t)
	_, _, err := svc.RecordLessonPurchase(context.Background(), "buyer@example.com", "missing", "sess-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRecordCursusPurchaseBackfillsLessons(t *testing.T) {
	ctx := context.Background()
	svc, purchases, cursus, lessons := newPurchaseFixture(t)

	result, err := svc.RecordCursusPurchase(ctx, "buyer@example.com", cursus.ID, "sess-2")
	require.NoError(t, err)
	assert.True(t, result.CursusCreated)
	assert.Equal(t, 2, result.LessonsCreated)
	assert.Len(t, result.LessonPurchases, 2)

	// One cursus row plus one row per lesson
	all, err := purchases.ListByUser(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	for _, l := range lessons {
		has, err := purchases.HasLessonPurchase(ctx, "buyer@example.com", l.ID)
		require.NoError(t, err)
		assert.True(t, has, "expected backfilled purchase for lesson %s", l.ID)
	}
}

func TestRecordCursusPurchaseReplayCreatesNothing(t *testing.T) {
	ctx := context.Background()
	svc, purchases, cursus, _ := newPurchaseFixture(t)

	first, err := svc.RecordCursusPurchase(ctx, "buyer@example.com", cursus.ID, "sess-2")
	require.NoError(t, err)

	replay, err := svc.RecordCursusPurchase(ctx, "buyer@example.com", cursus.ID, "sess-2-retry")
	require.NoError(t, err)
	assert.False(t, replay.CursusCreated)
	assert.Equal(t, 0, replay.LessonsCreated)
	assert.Equal(t, first.CursusPurchase.ID, replay.CursusPurchase.ID)

	all, err := purchases.ListByUser(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordCursusPurchaseBackfillsNewLessons(t *testing.T) {
	ctx := context.Background()
	catalog := newMemCatalogRepo()
	purchases := newMemPurchaseRepo()
	cursus, _ := fixture(catalog, 40.00, 20.00, 20.00)

	entitlement := NewEntitlementService(purchases, catalog, nil, 0, nil)
	svc := NewPurchaseService(purchases, catalog, entitlement, nil, audit.NewLogger(nil), nil)

	_, err := svc.RecordCursusPurchase(ctx, "buyer@example.com", cursus.ID, "sess-3")
	require.NoError(t, err)

	// A lesson added after the purchase gets its row on the next replay
	late := &domain.Lesson{CursusID: cursus.ID, Title: "Late Lesson", Price: 20.00, Position: 3}
	require.NoError(t, catalog.CreateLesson(ctx, late))

	replay, err := svc.RecordCursusPurchase(ctx, "buyer@example.com", cursus.ID, "sess-3-retry")
	require.NoError(t, err)
	assert.False(t, replay.CursusCreated)
	assert.Equal(t, 1, replay.LessonsCreated)

	has, err := purchases.HasLessonPurchase(ctx, "buyer@example.com", late.ID)
	require.NoError(t, err)
	assert.True(t, has)
}
