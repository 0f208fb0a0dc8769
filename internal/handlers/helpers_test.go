package handlers

import (
	"net/url"
	"testing"
	"time"
)

func TestClampPerPage(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 20},
		{"not-a-number", 20},
		{"50", 50},
		{"0", 1},
		{"-5", 1},
		{"1000", 100},
	}
	for _, tt := range tests {
		if got := clampPerPage(tt.in); got != tt.want {
			t.Errorf("clampPerPage(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"junk", 1},
		{"0", 1},
		{"-1", 1},
		{"7", 7},
	}
	for _, tt := range tests {
		if got := parsePage(tt.in); got != tt.want {
			t.Errorf("parsePage(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseDateParam(t *testing.T) {
	if got := parseDateParam(""); !got.IsZero() {
		t.Errorf("parseDateParam(\"\") = %v, want zero", got)
	}
	if got := parseDateParam("15/03/2024"); !got.IsZero() {
		t.Errorf("parseDateParam wrong format = %v, want zero", got)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := parseDateParam("2024-03-15"); !got.Equal(want) {
		t.Errorf("parseDateParam = %v, want %v", got, want)
	}
}

func TestParseArticleFilters(t *testing.T) {
	q := url.Values{}
	q.Set("keyword", "fusion")
	q.Set("date_from", "2024-01-01")
	q.Set("date_to", "2024-02-01")
	q.Set("category", "science")
	q.Set("source", "the-guardian")
	q.Set("author", "jane-doe")
	q.Set("page", "3")
	q.Set("per_page", "500")

	f := parseArticleFilters(q)

	if f.Keyword != "fusion" {
		t.Errorf("Keyword = %q", f.Keyword)
	}
	if f.DateFrom.IsZero() || f.DateTo.IsZero() {
		t.Error("date range not parsed")
	}
	if !f.Date.IsZero() {
		t.Error("Date set without a date parameter")
	}
	if f.Category != "science" || f.Source != "the-guardian" || f.Author != "jane-doe" {
		t.Errorf("ref filters = %q/%q/%q", f.Category, f.Source, f.Author)
	}
	if f.Page != 3 {
		t.Errorf("Page = %d, want 3", f.Page)
	}
	if f.PerPage != 100 {
		t.Errorf("PerPage = %d, want clamped to 100", f.PerPage)
	}
}

func TestParseArticleFiltersDefaults(t *testing.T) {
	f := parseArticleFilters(url.Values{})
	if f.Page != 1 || f.PerPage != 20 {
		t.Errorf("defaults = page %d per_page %d, want 1/20", f.Page, f.PerPage)
	}
}
