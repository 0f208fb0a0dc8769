package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvettori/newsdesk/internal/models"
)

// UsersHandler serves the per-user personalization endpoints. Authentication
// is handled upstream of this service; the user id comes from the path.
type UsersHandler struct {
	Articles    *models.ArticleStore
	Preferences *models.PreferenceStore
}

// Feed handles GET /api/users/{id}/feed: articles matching any of the user's
// preference sets, unfiltered if none are stored.
func (h *UsersHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	prefs, err := h.Preferences.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "preference lookup failed")
		return
	}

	page := parsePage(r.URL.Query().Get("page"))
	perPage := clampPerPage(r.URL.Query().Get("per_page"))

	articles, total, err := h.Articles.UserFeed(r.Context(), prefs, page, perPage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "feed query failed")
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Data: articles,
		Meta: listMeta{Page: page, PerPage: perPage, Total: total},
	})
}

// GetPreferences handles GET /api/users/{id}/preferences.
func (h *UsersHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	prefs, err := h.Preferences.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "preference lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/users/{id}/preferences, replacing all
// three preference sets with the submitted ones.
func (h *UsersHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.Preferences.Replace(r.Context(), userID, prefs); err != nil {
		writeError(w, http.StatusInternalServerError, "preference update failed")
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}
