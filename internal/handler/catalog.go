package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/knowledgehub/internal/service"
)

// CatalogHandler serves the public theme/cursus/lesson tree.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// GetCatalogue handles GET /api/catalogue
func (h *CatalogHandler) GetCatalogue(w http.ResponseWriter, r *http.Request) {
	catalogue, err := h.catalog.GetCatalogue(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogue)
}

// GetTheme handles GET /api/themes/{id}
func (h *CatalogHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.catalog.GetTheme(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

// GetCursus handles GET /api/cursuses/{id}
func (h *CatalogHandler) GetCursus(w http.ResponseWriter, r *http.Request) {
	cursus, err := h.catalog.GetCursus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cursus)
}

// GetLesson handles GET /api/lessons/{id}
func (h *CatalogHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.catalog.GetLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}
