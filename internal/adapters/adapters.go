// Package adapters contains one adapter per external news provider. Each
// adapter owns its provider's query parameters and response-shape mapping and
// converts whatever the provider returns into canonical articles.
//
// Adapters never surface errors: network failures, non-2xx statuses, and
// malformed payloads all degrade to an empty batch plus a log line whose
// severity reflects the cause (authentication failure is the loudest, rate
// limiting is a warning, anything else an error).
package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mvettori/newsdesk/internal/config"
	"github.com/mvettori/newsdesk/internal/kv"
	"github.com/mvettori/newsdesk/internal/news"
)

const userAgent = "newsdesk/1.0"

// Adapter fetches raw data from one provider and maps it to canonical
// articles. Implementations catch every failure internally and return an
// empty slice instead.
type Adapter interface {
	Name() string
	FetchAndAdapt(ctx context.Context) []news.CanonicalArticle
}

// Registry builds the static adapter list from configuration. The orchestrator
// iterates this list; there is no dynamic discovery.
func Registry(cfg config.Config, cache kv.Store) []Adapter {
	return []Adapter{
		NewNewsAPI(cfg.NewsAPI, cache),
		NewGuardian(cfg.Guardian),
		NewNYT(cfg.NYT),
	}
}

// get issues a single GET request with the provider's query parameters.
// The caller owns the response body.
func get(ctx context.Context, client *http.Client, rawURL string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return client.Do(req)
}

// logStatus logs a non-2xx provider response at a severity keyed to its
// cause: 401/403 means a bad key and needs operator attention, 429 is the
// provider throttling us, anything else is a plain provider error.
func logStatus(adapter string, status int) {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		slog.Error("provider authentication failed - check API key", "adapter", adapter, "status", status)
	case http.StatusTooManyRequests:
		slog.Warn("provider rate limit exceeded", "adapter", adapter, "status", status)
	default:
		slog.Error("provider request failed", "adapter", adapter, "status", status)
	}
}
