package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/pkg/cache"
)

const catalogueCacheKey = "catalogue:full"
const catalogueCacheTTL = 30 * time.Second

// CatalogService serves the theme/cursus/lesson tree and handles the admin
// create operations. The assembled catalogue is cached briefly in memory;
// writes purge it.
type CatalogService struct {
	catalog domain.CatalogRepository
	local   *cache.Cache
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog domain.CatalogRepository, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		catalog: catalog,
		local:   cache.New(),
		logger:  logger,
	}
}

// GetCatalogue assembles the full nested catalogue.
func (s *CatalogService) GetCatalogue(ctx context.Context) ([]*domain.CatalogueTheme, error) {
	if v, ok := s.local.Get(catalogueCacheKey); ok {
		return v.([]*domain.CatalogueTheme), nil
	}

	themes, err := s.catalog.ListThemes(ctx)
	if err != nil {
		return nil, err
	}

	catalogue := make([]*domain.CatalogueTheme, 0, len(themes))
	for _, theme := range themes {
		ct := &domain.CatalogueTheme{Theme: *theme, Cursuses: []*domain.CatalogueCursus{}}
		cursuses, err := s.catalog.ListCursusesByTheme(ctx, theme.ID)
		if err != nil {
			return nil, err
		}
		for _, cursus := range cursuses {
			lessons, err := s.catalog.ListLessonsByCursus(ctx, cursus.ID)
			if err != nil {
				return nil, err
			}
			if lessons == nil {
				lessons = []*domain.Lesson{}
			}
			ct.Cursuses = append(ct.Cursuses, &domain.CatalogueCursus{Cursus: *cursus, Lessons: lessons})
		}
		catalogue = append(catalogue, ct)
	}

	s.local.Set(catalogueCacheKey, catalogue, catalogueCacheTTL)
	return catalogue, nil
}

// GetTheme returns one theme
func (s *CatalogService) GetTheme(ctx context.Context, id string) (*domain.Theme, error) {
	return s.catalog.GetTheme(ctx, id)
}

// GetCursus returns one cursus with its lessons attached.
func (s *CatalogService) GetCursus(ctx context.Context, id string) (*domain.CatalogueCursus, error) {
	cursus, err := s.catalog.GetCursus(ctx, id)
	if err != nil {
		return nil, err
	}
	lessons, err := s.catalog.ListLessonsByCursus(ctx, id)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []*domain.Lesson{}
	}
	return &domain.CatalogueCursus{Cursus: *cursus, Lessons: lessons}, nil
}

// GetLesson returns one lesson
func (s *CatalogService) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	return s.catalog.GetLesson(ctx, id)
}

// CreateTheme creates a theme (admin only, enforced at the handler)
func (s *CatalogService) CreateTheme(ctx context.Context, title, description string) (*domain.Theme, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: theme title is required", domain.ErrInvalid)
	}
	theme := &domain.Theme{Title: title, Description: description}
	if err := s.catalog.CreateTheme(ctx, theme); err != nil {
		return nil, err
	}
	s.local.Delete(catalogueCacheKey)
	s.logger.Info("theme created", "theme_id", theme.ID, "title", title)
	return theme, nil
}

// CreateCursus creates a cursus under an existing theme
func (s *CatalogService) CreateCursus(ctx context.Context, themeID, title, description string, price float64) (*domain.Cursus, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: cursus title is required", domain.ErrInvalid)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: cursus price must not be negative", domain.ErrInvalid)
	}
	if _, err := s.catalog.GetTheme(ctx, themeID); err != nil {
		return nil, err
	}
	cursus := &domain.Cursus{ThemeID: themeID, Title: title, Description: description, Price: price}
	if err := s.catalog.CreateCursus(ctx, cursus); err != nil {
		return nil, err
	}
	s.local.Delete(catalogueCacheKey)
	s.logger.Info("cursus created", "cursus_id", cursus.ID, "theme_id", themeID, "title", title)
	return cursus, nil
}

// CreateLesson creates a lesson under an existing cursus
func (s *CatalogService) CreateLesson(ctx context.Context, cursusID, title, description string, price float64, position int) (*domain.Lesson, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: lesson title is required", domain.ErrInvalid)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: lesson price must not be negative", domain.ErrInvalid)
	}
	if _, err := s.catalog.GetCursus(ctx, cursusID); err != nil {
		return nil, err
	}
	if position <= 0 {
		count, err := s.catalog.CountLessons(ctx, cursusID)
		if err != nil {
			return nil, err
		}
		position = count + 1
	}
	lesson := &domain.Lesson{CursusID: cursusID, Title: title, Description: description, Price: price, Position: position}
	if err := s.catalog.CreateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	s.local.Delete(catalogueCacheKey)
	s.logger.Info("lesson created", "lesson_id", lesson.ID, "cursus_id", cursusID, "title", title)
	return lesson, nil
}
