package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/knowledgehub/internal/domain"
	"github.com/yourorg/knowledgehub/internal/security/auth"
	"github.com/yourorg/knowledgehub/internal/service"
)

type stubCatalogRepo struct {
	themes  []*domain.Theme
	lessons []*domain.Lesson
	nextID  int
}

func (s *stubCatalogRepo) genID() string {
	s.nextID++
	return fmt.Sprintf("id-%d", s.nextID)
}

func (s *stubCatalogRepo) CreateTheme(_ context.Context, t *domain.Theme) error {
	t.ID = s.genID()
	s.themes = append(s.themes, t)
	return nil
}
func (s *stubCatalogRepo) CreateCursus(context.Context, *domain.Cursus) error { return nil }
func (s *stubCatalogRepo) CreateLesson(_ context.Context, l *domain.Lesson) error {
	l.ID = s.genID()
	s.lessons = append(s.lessons, l)
	return nil
}
func (s *stubCatalogRepo) GetTheme(_ context.Context, id string) (*domain.Theme, error) {
	for _, t := range s.themes {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (s *stubCatalogRepo) GetCursus(context.Context, string) (*domain.Cursus, error) {
	return nil, domain.ErrNotFound
}
func (s *stubCatalogRepo) GetLesson(_ context.Context, id string) (*domain.Lesson, error) {
	for _, l := range s.lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (s *stubCatalogRepo) ListThemes(context.Context) ([]*domain.Theme, error) {
	return s.themes, nil
}
func (s *stubCatalogRepo) ListCursusesByTheme(context.Context, string) ([]*domain.Cursus, error) {
	return nil, nil
}
func (s *stubCatalogRepo) ListLessonsByCursus(context.Context, string) ([]*domain.Lesson, error) {
	return nil, nil
}
func (s *stubCatalogRepo) CountLessons(context.Context, string) (int, error) { return 0, nil }

type stubUserRepo struct {
	byEmail map[string]*domain.User
}

func (s *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := s.byEmail[u.Email]; ok {
		return domain.ErrAlreadyExists
	}
	u.ID = "user-" + u.Email
	s.byEmail[u.Email] = u
	return nil
}
func (s *stubUserRepo) GetByID(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
func (s *stubUserRepo) Update(context.Context, *domain.User) error { return nil }

func newTestMux(t *testing.T) (*http.ServeMux, *stubCatalogRepo) {
	t.Helper()
	catalogRepo := &stubCatalogRepo{}
	catalogSvc := service.NewCatalogService(catalogRepo, nil)
	tm := auth.NewTokenManager("test-secret", "test")
	authSvc := service.NewAuthService(&stubUserRepo{byEmail: map[string]*domain.User{}}, tm, time.Minute, nil)

	catalogHandler := NewCatalogHandler(catalogSvc, nil)
	authHandler := NewAuthHandler(authSvc, nil)
	validationHandler := NewValidationHandler(nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/catalogue", catalogHandler.GetCatalogue)
	mux.HandleFunc("GET /api/lessons/{id}", catalogHandler.GetLesson)
	mux.HandleFunc("POST /api/lessons/{id}/validate", validationHandler.ValidateLesson)
	return mux, catalogRepo
}

func TestCatalogueEndpoint(t *testing.T) {
	mux, repo := newTestMux(t)
	repo.CreateTheme(context.Background(), &domain.Theme{Title: "Musique"})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalogue", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %s", ct)
	}
	var tree []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(tree) != 1 || tree[0]["title"] != "Musique" {
		t.Fatalf("unexpected catalogue: %v", tree)
	}
}

func TestGetLessonNotFound(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lessons/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	mux, _ := newTestMux(t)

	body := `{"email":"alice@example.com","password":"Password123"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on register, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d", rec.Code)
	}
	var result map[string]any
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result["token"] == "" || result["token"] == nil {
		t.Fatalf("expected token in login response: %v", result)
	}

	// Wrong password
	rec = httptest.NewRecorder()
	wrong := `{"email":"alice@example.com","password":"Nope"}`
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(wrong)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
}

func TestValidateRequiresAuthentication(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/lessons/l-1/validate", strings.NewReader("{}")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rec.Code)
	}
}
