package handlers

import (
	"net/http"

	"github.com/mvettori/newsdesk/internal/models"
)

// MetaHandler serves the reference-entity listings used to build preference
// selections.
type MetaHandler struct {
	Refs *models.RefStore
}

// Sources handles GET /api/sources.
func (h *MetaHandler) Sources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Refs.ListSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "source listing failed")
		return
	}
	if sources == nil {
		sources = []models.Ref{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sources})
}

// Categories handles GET /api/categories.
func (h *MetaHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Refs.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "category listing failed")
		return
	}
	if categories == nil {
		categories = []models.Ref{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": categories})
}

// Authors handles GET /api/authors.
func (h *MetaHandler) Authors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.Refs.ListAuthors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "author listing failed")
		return
	}
	if authors == nil {
		authors = []models.Author{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": authors})
}
