// Package handlers implements the HTTP read layer over the persisted
// articles and reference entities.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// listMeta is the pagination envelope returned alongside every listing.
type listMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// listResponse wraps listing data with its pagination metadata.
type listResponse struct {
	Data any      `json:"data"`
	Meta listMeta `json:"meta"`
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json", "err", err)
	}
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clampPerPage parses a per_page query value and clamps it to [1, 100],
// defaulting to 20 when absent or unparseable.
func clampPerPage(raw string) int {
	perPage := 20
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			perPage = n
		}
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 100 {
		perPage = 100
	}
	return perPage
}

// parsePage parses a page query value, defaulting to 1.
func parsePage(raw string) int {
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// parseDateParam parses a YYYY-MM-DD query value. The zero time means the
// parameter was absent or invalid.
func parseDateParam(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
