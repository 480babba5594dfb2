package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/knowledgehub/internal/service"
)

// AdminHandler exposes catalog management. Routes using it are wrapped in
// middleware.RequireRole("admin").
type AdminHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(catalog *service.CatalogService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{catalog: catalog, logger: logger}
}

type createThemeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createCursusRequest struct {
	ThemeID     string  `json:"themeId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

type createLessonRequest struct {
	CursusID    string  `json:"cursusId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Position    int     `json:"position"`
}

// CreateTheme handles POST /api/admin/themes
func (h *AdminHandler) CreateTheme(w http.ResponseWriter, r *http.Request) {
	var req createThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	theme, err := h.catalog.CreateTheme(r.Context(), req.Title, req.Description)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, theme)
}

// CreateCursus handles POST /api/admin/cursuses
func (h *AdminHandler) CreateCursus(w http.ResponseWriter, r *http.Request) {
	var req createCursusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.ThemeID == "" {
		writeError(w, http.StatusBadRequest, "themeId is required")
		return
	}

	cursus, err := h.catalog.CreateCursus(r.Context(), req.ThemeID, req.Title, req.Description, req.Price)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cursus)
}

// CreateLesson handles POST /api/admin/lessons
func (h *AdminHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.CursusID == "" {
		writeError(w, http.StatusBadRequest, "cursusId is required")
		return
	}

	lesson, err := h.catalog.CreateLesson(r.Context(), req.CursusID, req.Title, req.Description, req.Price, req.Position)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}
