package news

import (
	"html"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/kennygrant/sanitize"
)

var (
	reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	reURL   = regexp.MustCompile(`https?://\S+`)
)

// imageExtensions are the file extensions accepted by ValidateImageURL.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// SanitizeText strips markup, decodes HTML entities, and trims whitespace.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}
	text = sanitize.HTML(text)
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}

// CleanAuthorName removes embedded email addresses and URLs from an author
// byline and trims it. Empty or exhausted input yields Unknown rather than an
// empty string.
func CleanAuthorName(author string) string {
	if author == "" {
		return Unknown
	}
	author = reEmail.ReplaceAllString(author, "")
	author = reURL.ReplaceAllString(author, "")
	author = strings.TrimSpace(author)
	if author == "" {
		return Unknown
	}
	return author
}

// ValidateImageURL returns the URL if it is a well-formed absolute http(s)
// URL with a known image extension or "image" somewhere in it, and nil
// otherwise. A malformed image URL is never surfaced.
func ValidateImageURL(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if !imageExtensions[ext] && !strings.Contains(raw, "image") {
		return nil
	}

	return &raw
}

// ParseDate parses a flexible date/time string into a timestamp. On failure
// it logs a warning and returns nil; each adapter decides whether a missing
// timestamp disqualifies the record.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		slog.Warn("normalize: failed to parse date", "date", raw)
		return nil
	}
	return &t
}
