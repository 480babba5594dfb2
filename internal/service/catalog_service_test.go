package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/knowledgehub/internal/domain"
)

func TestGetCatalogueAssemblesTree(t *testing.T) {
	ctx := context.Background()
	catalog := newMemCatalogRepo()
	cursus, lessons := fixture(catalog, 40.00, 20.00, 20.00)

	svc := NewCatalogService(catalog, nil)

	tree, err := svc.GetCatalogue(ctx)
	if err != nil {
		t.Fatalf("catalogue failed: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Cursuses) != 1 {
		t.Fatalf("unexpected tree shape: %+v", tree)
	}
	got := tree[0].Cursuses[0]
	if got.ID != cursus.ID || len(got.Lessons) != len(lessons) {
		t.Fatalf("unexpected cursus node: %+v", got)
	}
}

func TestCreateOperationsValidateInput(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(newMemCatalogRepo(), nil)

	if _, err := svc.CreateTheme(ctx, "   ", ""); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for blank title, got %v", err)
	}
	if _, err := svc.CreateCursus(ctx, "missing-theme", "Title", "", 10); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown theme, got %v", err)
	}

	theme, err := svc.CreateTheme(ctx, "Musique", "")
	if err != nil {
		t.Fatalf("create theme: %v", err)
	}
	if _, err := svc.CreateCursus(ctx, theme.ID, "Guitare", "", -1); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for negative price, got %v", err)
	}
}

func TestCreateLessonAssignsPosition(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(newMemCatalogRepo(), nil)

	theme, _ := svc.CreateTheme(ctx, "Musique", "")
	cursus, err := svc.CreateCursus(ctx, theme.ID, "Guitare", "", 50)
	if err != nil {
		t.Fatalf("create cursus: %v", err)
	}

	first, err := svc.CreateLesson(ctx, cursus.ID, "Découverte", "", 26, 0)
	if err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	second, err := svc.CreateLesson(ctx, cursus.ID, "Accords", "", 26, 0)
	if err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	if first.Position != 1 || second.Position != 2 {
		t.Fatalf("expected appended positions 1,2; got %d,%d", first.Position, second.Position)
	}
}

func TestCatalogueCacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(newMemCatalogRepo(), nil)

	if _, err := svc.CreateTheme(ctx, "Musique", ""); err != nil {
		t.Fatalf("create theme: %v", err)
	}

	tree, _ := svc.GetCatalogue(ctx)
	if len(tree) != 1 {
		t.Fatalf("expected one theme, got %d", len(tree))
	}

	// A write purges the cached catalogue; the next read sees the new theme
	if _, err := svc.CreateTheme(ctx, "Cuisine", ""); err != nil {
		t.Fatalf("create theme: %v", err)
	}
	tree, _ = svc.GetCatalogue(ctx)
	if len(tree) != 2 {
		t.Fatalf("expected cache purge to expose second theme, got %d", len(tree))
	}
}
