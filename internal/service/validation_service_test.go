package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/security/audit"
)

type validationFixture struct {
	svc       *ValidationService
	purchases *PurchaseService
	certs     *memCertificationRepo
	cursus    *domain.Cursus
	lessons   []*domain.Lesson
}

func newValidationFixture(t *testing.T, lessonPrices ...float64) *validationFixture {
	t.Helper()
	catalog := newMemCatalogRepo()
	purchaseRepo := newMemPurchaseRepo()
	validationRepo := newMemValidationRepo(catalog)
	certRepo := newMemCertificationRepo()
	cursus, lessons := fixture(catalog, 40.00, lessonPrices...)

	auditLog := audit.NewLogger(nil)
	entitlement := NewEntitlementService(purchaseRepo, catalog, nil, 0, nil)
	return &validationFixture{
		svc:       NewValidationService(validationRepo, certRepo, catalog, entitlement, nil, auditLog, nil),
		purchases: NewPurchaseService(purchaseRepo, catalog, entitlement, nil, auditLog, nil),
		certs:     certRepo,
		cursus:    cursus,
		lessons:   lessons,
	}
}

func TestValidateLessonRequiresPurchase(t *testing.T) {
	ctx := context.Background()
	f := newValidationFixture(t, 20.00, 20.00)

	_, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[0].ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden without purchase, got %v", err)
	}

	_, err = f.svc.ValidateLesson(ctx, "buyer@example.com", "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown lesson, got %v", err)
	}
}

func TestValidateLessonRollUp(t *testing.T) {
	ctx := context.Background()
	f := newValidationFixture(t, 20.00, 20.00)

	_, err := f.purchases.RecordCursusPurchase(ctx, "buyer@example.com", f.cursus.ID, "sess-1")
	require.NoError(t, err)

	// First lesson: validated, no certification yet
	result, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValidated, result.Outcome)
	assert.Nil(t, result.Certification)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.Validated)
	assert.NotNil(t, result.Validation.ValidatedAt)

	// Re-validating the same lesson changes nothing
	again, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyValidated, again.Outcome)
	assert.Equal(t, result.Validation.ID, again.Validation.ID)
	assert.Equal(t, result.Validation.ValidatedAt, again.Validation.ValidatedAt)

	// Last lesson completes the cursus and grants the certification
	final, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCertificationGranted, final.Outcome)
	require.NotNil(t, final.Certification)
	assert.Equal(t, f.cursus.ID, final.Certification.CursusID)

	certs, err := f.svc.ListCertifications(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestValidateLastLessonAgainIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newValidationFixture(t, 20.00)

	_, err := f.purchases.RecordCursusPurchase(ctx, "buyer@example.com", f.cursus.ID, "sess-1")
	require.NoError(t, err)

	// Single-lesson cursus: first validation grants the certification
	result, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCertificationGranted, result.Outcome)

	// Replays never re-issue
	again, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyValidated, again.Outcome)

	certs, err := f.svc.ListCertifications(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestValidationsAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	f := newValidationFixture(t, 20.00, 20.00)

	for _, user := range []string{"alice@example.com", "bob@example.com"} {
		_, err := f.purchases.RecordCursusPurchase(ctx, user, f.cursus.ID, "sess-"+user)
		require.NoError(t, err)
	}

	// Alice completes the cursus; Bob has validated nothing
	for _, l := range f.lessons {
		_, err := f.svc.ValidateLesson(ctx, "alice@example.com", l.ID)
		require.NoError(t, err)
	}

	aliceCerts, _ := f.svc.ListCertifications(ctx, "alice@example.com")
	bobCerts, _ := f.svc.ListCertifications(ctx, "bob@example.com")
	assert.Len(t, aliceCerts, 1)
	assert.Len(t, bobCerts, 0)
}

func TestDirectLessonPurchaseAllowsValidation(t *testing.T) {
	ctx := context.Background()
	f := newValidationFixture(t, 20.00, 20.00)

	_, _, err := f.purchases.RecordLessonPurchase(ctx, "buyer@example.com", f.lessons[0].ID, "sess-l1")
	require.NoError(t, err)

	result, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValidated, result.Outcome)

	// The sibling lesson is still gated
	_, err = f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[1].ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

// racingCertRepo models a concurrent validator whose certification insert
// commits first: every delegated Create loses to a rival row for the same
// (user, cursus), the way the insert-or-ignore behaves under a race.
type racingCertRepo struct {
	inner *memCertificationRepo
}

func (r *racingCertRepo) Create(ctx context.Context, c *domain.Certification) (bool, error) {
	rival := &domain.Certification{UserID: c.UserID, CursusID: c.CursusID, ObtainedAt: c.ObtainedAt}
	if _, err := r.inner.Create(ctx, rival); err != nil {
		return false, err
	}
	return r.inner.Create(ctx, c)
}

func (r *racingCertRepo) Get(ctx context.Context, userID, cursusID string) (*domain.Certification, error) {
	return r.inner.Get(ctx, userID, cursusID)
}

func (r *racingCertRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Certification, error) {
	return r.inner.ListByUser(ctx, userID)
}

func TestRacingFinalValidationsGrantExactlyOnce(t *testing.T) {
	ctx := context.Background()
	catalog := newMemCatalogRepo()
	purchaseRepo := newMemPurchaseRepo()
	validationRepo := newMemValidationRepo(catalog)
	certRepo := &racingCertRepo{inner: newMemCertificationRepo()}
	cursus, lessons := fixture(catalog, 40.00, 20.00)

	auditLog := audit.NewLogger(nil)
	entitlement := NewEntitlementService(purchaseRepo, catalog, nil, 0, nil)
	svc := NewValidationService(validationRepo, certRepo, catalog, entitlement, nil, auditLog, nil)
	purchases := NewPurchaseService(purchaseRepo, catalog, entitlement, nil, auditLog, nil)

	_, err := purchases.RecordCursusPurchase(ctx, "buyer@example.com", cursus.ID, "sess-1")
	require.NoError(t, err)

	// The losing validator sees a complete cursus but its insert is beaten;
	// it must report a plain validation, not a second grant.
	result, err := svc.ValidateLesson(ctx, "buyer@example.com", lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValidated, result.Outcome)
	assert.Nil(t, result.Certification)

	certs, err := svc.ListCertifications(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestLessonByLessonCompletionGrantsCertification(t *testing.T) {
	ctx := context.Background()
	f := newValidationFixture(t, 20.00, 20.00)

	// Buying each lesson individually also completes the cursus
	for _, l := range f.lessons {
		_, _, err := f.purchases.RecordLessonPurchase(ctx, "buyer@example.com", l.ID, "sess-"+l.ID)
		require.NoError(t, err)
	}

	first, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValidated, first.Outcome)

	last, err := f.svc.ValidateLesson(ctx, "buyer@example.com", f.lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCertificationGranted, last.Outcome)
}
