package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestUsersHandlerRejectsBadID(t *testing.T) {
	h := &UsersHandler{}

	r := chi.NewRouter()
	r.Get("/api/users/{id}/feed", h.Feed)
	r.Get("/api/users/{id}/preferences", h.GetPreferences)
	r.Put("/api/users/{id}/preferences", h.UpdatePreferences)

	for _, tt := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/not-a-uuid/feed"},
		{http.MethodGet, "/api/users/42/preferences"},
		{http.MethodPut, "/api/users//preferences"},
	} {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		// A malformed id must fail before any store is touched; the handler
		// has nil stores, so reaching one would panic.
		if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 400", tt.method, tt.path, rec.Code)
		}
	}
}
