package handlers

import (
	"net/http"
	"net/url"

	"github.com/mvettori/newsdesk/internal/models"
)

// ArticlesHandler serves the public article search/filter endpoint.
type ArticlesHandler struct {
	Articles *models.ArticleStore
}

// Index handles GET /api/articles with keyword, date, date_from, date_to,
// category, source, author, page, and per_page query parameters.
func (h *ArticlesHandler) Index(w http.ResponseWriter, r *http.Request) {
	f := parseArticleFilters(r.URL.Query())

	articles, total, err := h.Articles.Search(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "article search failed")
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Data: articles,
		Meta: listMeta{Page: f.Page, PerPage: f.PerPage, Total: total},
	})
}

func parseArticleFilters(q url.Values) models.Filters {
	return models.Filters{
		Keyword:  q.Get("keyword"),
		Date:     parseDateParam(q.Get("date")),
		DateFrom: parseDateParam(q.Get("date_from")),
		DateTo:   parseDateParam(q.Get("date_to")),
		Category: q.Get("category"),
		Source:   q.Get("source"),
		Author:   q.Get("author"),
		Page:     parsePage(q.Get("page")),
		PerPage:  clampPerPage(q.Get("per_page")),
	}
}
