package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/knowledgehub/internal/domain"
)

func TestIsEntitled(t *testing.T) {
	ctx := context.Background()
	catalog := newMemCatalogRepo()
	purchases := newMemPurchaseRepo()
	cursus, lessons := fixture(catalog, 40.00, 20.00, 20.00)

	svc := NewEntitlementService(purchases, catalog, nil, 0, nil)

	// No purchase at all
	entitled, err := svc.IsEntitled(ctx, "buyer", lessons[0].ID)
	if err != nil {
		t.Fatalf("IsEntitled failed: %v", err)
	}
	if entitled {
		t.Fatalf("expected no entitlement without purchase")
	}

	// Direct lesson purchase entitles that lesson only
	if _, err := purchases.CreateLessonPurchase(ctx, &domain.Purchase{UserID: "buyer", LessonID: lessons[0].ID}); err != nil {
		t.Fatalf("create lesson purchase: %v", err)
	}
	entitled, _ = svc.IsEntitled(ctx, "buyer", lessons[0].ID)
	if !entitled {
		t.Fatalf("expected entitlement after lesson purchase")
	}
	entitled, _ = svc.IsEntitled(ctx, "buyer", lessons[1].ID)
	if entitled {
		t.Fatalf("lesson purchase must not entitle sibling lesson")
	}

	// Cursus purchase entitles every lesson in it
	if _, err := purchases.CreateCursusPurchase(ctx, &domain.Purchase{UserID: "other", CursusID: cursus.ID}, nil); err != nil {
		t.Fatalf("create cursus purchase: %v", err)
	}
	for _, l := range lessons {
		entitled, _ = svc.IsEntitled(ctx, "other", l.ID)
		if !entitled {
			t.Fatalf("expected cursus purchase to entitle lesson %s", l.ID)
		}
	}

	// Another user gains nothing
	entitled, _ = svc.IsEntitled(ctx, "stranger", lessons[0].ID)
	if entitled {
		t.Fatalf("expected no entitlement for a stranger")
	}
}

func TestIsEntitledUnknownLesson(t *testing.T) {
	svc := NewEntitlementService(newMemPurchaseRepo(), newMemCatalogRepo(), nil, 0, nil)
	_, err := svc.IsEntitled(context.Background(), "buyer", "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
