package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mvettori/newsdesk/internal/config"
)

const nytPayload = `{
	"response": {
		"docs": [
			{
				"web_url": "https://www.nytimes.com/a",
				"abstract": "Abstract A",
				"pub_date": "2024-03-15T10:00:00Z",
				"section_name": "Business",
				"headline": {"main": "Story A"},
				"byline": {"original": "By Carol White"},
				"multimedia": [{"url": "images/2024/03/15/a.jpg"}]
			},
			{
				"web_url": "https://www.nytimes.com/a",
				"abstract": "duplicate, ignored",
				"pub_date": "2024-03-15T11:00:00Z",
				"headline": {"main": "Story A again"},
				"byline": {}
			},
			{
				"web_url": "https://www.nytimes.com/b",
				"abstract": "",
				"snippet": "Snippet B",
				"pub_date": "2024-03-15T12:00:00Z",
				"headline": {"main": "Story B"},
				"byline": {"person": [{"firstname": "Dan", "lastname": "Green"}]}
			},
			{
				"web_url": "https://www.nytimes.com/c",
				"abstract": "",
				"snippet": "",
				"lead_paragraph": "",
				"pub_date": "2024-03-15T13:00:00Z",
				"headline": {"main": "No description"},
				"byline": {}
			},
			{
				"web_url": "https://www.nytimes.com/d",
				"abstract": "Abstract D",
				"pub_date": "2024-03-15T14:00:00Z",
				"headline": {"main": "Story D"},
				"byline": {}
			}
		]
	}
}`

func nytFixture(t *testing.T, handler http.HandlerFunc) *NYT {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNYT(config.ProviderConfig{
		Key:     "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
}

func TestNYTFetchAndAdapt(t *testing.T) {
	a := nytFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/articlesearch.json") {
			t.Errorf("path = %q, want articlesearch.json", r.URL.Path)
		}
		w.Write([]byte(nytPayload))
	})

	got := a.FetchAndAdapt(context.Background())
	// Duplicate URL dropped (first wins), description-less doc dropped.
	if len(got) != 3 {
		t.Fatalf("got %d articles, want 3", len(got))
	}

	first := got[0]
	if first.Title != "Story A" {
		t.Errorf("Title = %q, want the first duplicate to win", first.Title)
	}
	if first.SourceName != "The New York Times" {
		t.Errorf("SourceName = %q", first.SourceName)
	}
	if first.AuthorName != "Carol White" {
		t.Errorf("AuthorName = %q, want the By prefix stripped", first.AuthorName)
	}
	if first.CategoryName != "Business" {
		t.Errorf("CategoryName = %q, want Business", first.CategoryName)
	}
	if first.ImageURL == nil || *first.ImageURL != "https://www.nytimes.com/images/2024/03/15/a.jpg" {
		t.Errorf("ImageURL = %v, want the relative path made absolute", first.ImageURL)
	}

	second := got[1]
	if second.AuthorName != "Dan Green" {
		t.Errorf("AuthorName = %q, want the person fallback", second.AuthorName)
	}
	if second.Description != "Snippet B" {
		t.Errorf("Description = %q, want the snippet fallback", second.Description)
	}

	third := got[2]
	if third.AuthorName != "The New York Times" {
		t.Errorf("AuthorName = %q, want the outlet fallback", third.AuthorName)
	}
	if third.CategoryName != "General" {
		t.Errorf("CategoryName = %q, want General", third.CategoryName)
	}
}

func TestNYTProviderFailure(t *testing.T) {
	a := nytFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if got := a.FetchAndAdapt(context.Background()); len(got) != 0 {
		t.Errorf("got %d articles, want 0", len(got))
	}
}

func TestNYTAuthorFallbacks(t *testing.T) {
	tests := []struct {
		name string
		in   nytByline
		want string
	}{
		{"printed byline", nytByline{Original: "By Jane Roe"}, "Jane Roe"},
		{"no prefix kept as is", nytByline{Original: "Jane Roe"}, "Jane Roe"},
		{"outlet fallback", nytByline{}, "The New York Times"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nytAuthor(tt.in); got != tt.want {
				t.Errorf("nytAuthor = %q, want %q", got, tt.want)
			}
		})
	}
}
