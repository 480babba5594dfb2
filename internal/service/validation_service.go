package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/events"
	"github.com/yourorg/knowledgehub/internal/observability/metrics"
	"github.com/yourorg/knowledgehub/internal/security/audit"
)

// ValidationService records lesson completions and rolls them up into
// certifications. Validating the last remaining lesson of a cursus issues
// the cursus certification exactly once.
type ValidationService struct {
	validations    domain.ValidationRepository
	certifications domain.CertificationRepository
	catalog        domain.CatalogRepository
	entitlement    *EntitlementService
	bus            *events.Bus
	auditLog       *audit.Logger
	logger         *slog.Logger
}

// NewValidationService creates a new validation service
func NewValidationService(validations domain.ValidationRepository, certifications domain.CertificationRepository, catalog domain.CatalogRepository, entitlement *EntitlementService, bus *events.Bus, auditLog *audit.Logger, logger *slog.Logger) *ValidationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationService{
		validations:    validations,
		certifications: certifications,
		catalog:        catalog,
		entitlement:    entitlement,
		bus:            bus,
		auditLog:       auditLog,
		logger:         logger,
	}
}

// ValidateLesson marks a lesson as completed by the user. Order matters:
// the entitlement gate runs before any write, the duplicate check keeps the
// operation idempotent, and the roll-up only fires on a first-time
// validation.
func (s *ValidationService) ValidateLesson(ctx context.Context, userID, lessonID string) (*domain.ValidationResult, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	entitled, err := s.entitlement.IsEntitled(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if !entitled {
		metrics.ObserveValidation("forbidden")
		s.auditLog.LogDenied(ctx, userID, "validate lesson without purchase: "+lessonID)
		return nil, domain.ErrForbidden
	}

	existing, err := s.validations.Get(ctx, userID, lessonID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Validated {
		metrics.ObserveValidation(string(domain.OutcomeAlreadyValidated))
		s.auditLog.LogValidation(ctx, userID, lessonID, string(domain.OutcomeAlreadyValidated))
		return &domain.ValidationResult{
			Outcome:    domain.OutcomeAlreadyValidated,
			Validation: existing,
		}, nil
	}

	v := &domain.LessonValidation{UserID: userID, LessonID: lessonID}
	if err := s.validations.MarkValidated(ctx, v); err != nil {
		return nil, err
	}
	s.publish(events.TypeLessonValidated, userID, lessonID, lesson.CursusID)

	result := &domain.ValidationResult{
		Outcome:    domain.OutcomeValidated,
		Validation: v,
	}

	// Roll-up: compare the user's validated count against the cursus lesson
	// count. Both reads happen after the committed write above, so whichever
	// of two racing validators runs last sees completion; the insert-or-ignore
	// below guarantees a single certification either way.
	totalLessons, err := s.catalog.CountLessons(ctx, lesson.CursusID)
	if err != nil {
		return nil, err
	}
	validatedCount, err := s.validations.CountValidatedInCursus(ctx, userID, lesson.CursusID)
	if err != nil {
		return nil, err
	}

	if totalLessons > 0 && validatedCount >= totalLessons {
		cert := &domain.Certification{
			UserID:     userID,
			CursusID:   lesson.CursusID,
			ObtainedAt: time.Now(),
		}
		created, err := s.certifications.Create(ctx, cert)
		if err != nil {
			return nil, err
		}
		if created {
			result.Outcome = domain.OutcomeCertificationGranted
			result.Certification = cert
			metrics.ObserveCertificationIssued()
			s.publish(events.TypeCertificationGranted, userID, "", lesson.CursusID)
			s.logger.Info("certification granted",
				"user_id", userID,
				"cursus_id", lesson.CursusID,
			)
		}
	}

	metrics.ObserveValidation(string(result.Outcome))
	s.auditLog.LogValidation(ctx, userID, lessonID, string(result.Outcome))
	return result, nil
}

// ListCertifications returns the user's certifications, newest first
func (s *ValidationService) ListCertifications(ctx context.Context, userID string) ([]*domain.Certification, error) {
	return s.certifications.ListByUser(ctx, userID)
}

// GetValidation returns the validation state for one (user, lesson) pair.
func (s *ValidationService) GetValidation(ctx context.Context, userID, lessonID string) (*domain.LessonValidation, error) {
	return s.validations.Get(ctx, userID, lessonID)
}

func (s *ValidationService) publish(eventType events.Type, userID, lessonID, cursusID string) {
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
