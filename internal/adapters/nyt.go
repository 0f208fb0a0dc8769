package adapters

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mvettori/newsdesk/internal/config"
	"github.com/mvettori/newsdesk/internal/news"
)

const (
	nytName   = "NYT"
	nytOutlet = "The New York Times"
)

// NYT fetches from the New York Times Article Search API. The API paginates,
// but a single page of the newest results per run is enough for a 15-minute
// schedule, so only page 0 is requested.
type NYT struct {
	cfg    config.ProviderConfig
	client *http.Client
}

// NewNYT creates the adapter with its own HTTP client and timeout.
func NewNYT(cfg config.ProviderConfig) *NYT {
	return &NYT{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Adapter.
func (a *NYT) Name() string { return nytName }

// FetchAndAdapt implements Adapter. Unlike the other adapters, in-batch
// duplicate URLs are first-wins, and records without a description are
// dropped.
func (a *NYT) FetchAndAdapt(ctx context.Context) []news.CanonicalArticle {
	params := url.Values{}
	params.Set("api-key", a.cfg.Key)
	params.Set("sort", "newest")
	params.Set("page", "0")

	resp, err := get(ctx, a.client, a.cfg.BaseURL+"/articlesearch.json", params)
	if err != nil {
		slog.Error("nyt: request failed", "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logStatus(nytName, resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		slog.Error("nyt: read body", "err", err)
		return nil
	}

	var payload nytResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Error("nyt: malformed payload", "err", err)
		return nil
	}

	if len(payload.Response.Docs) == 0 {
		slog.Warn("nyt: returned no articles")
		return nil
	}

	return a.transform(payload.Response.Docs)
}

func (a *NYT) transform(docs []nytDoc) []news.CanonicalArticle {
	var out []news.CanonicalArticle
	seen := make(map[string]bool)

	for _, doc := range docs {
		if doc.WebURL == "" {
			continue
		}
		// Duplicate URLs within the batch: first one wins.
		if seen[doc.WebURL] {
			continue
		}

		title := news.SanitizeText(doc.Headline.Main)
		description := news.SanitizeText(firstNonEmpty(doc.Abstract, doc.Snippet, doc.LeadParagraph))
		if title == "" || description == "" {
			continue
		}

		published := news.ParseDate(doc.PubDate)
		if published == nil {
			continue
		}

		category := doc.SectionName
		if category == "" {
			category = news.GeneralCategory
		}

		ca := news.CanonicalArticle{
			SourceName:   nytOutlet,
			AuthorName:   nytAuthor(doc.Byline),
			CategoryName: category,
			Title:        title,
			Description:  description,
			ArticleURL:   doc.WebURL,
			ImageURL:     nytImageURL(doc.Multimedia),
			PublishedAt:  published,
		}

		seen[ca.ArticleURL] = true
		out = append(out, ca)
	}

	return out
}

// nytAuthor extracts the author from the byline, preferring the printed
// byline with its "By " prefix stripped, falling back to the first listed
// person, then to the outlet itself.
func nytAuthor(b nytByline) string {
	if b.Original != "" {
		return news.CleanAuthorName(strings.TrimPrefix(b.Original, "By "))
	}
	if len(b.Person) > 0 && (b.Person[0].FirstName != "" || b.Person[0].LastName != "") {
		return news.CleanAuthorName(strings.TrimSpace(b.Person[0].FirstName + " " + b.Person[0].LastName))
	}
	return nytOutlet
}

// nytImageURL takes the first multimedia entry, making relative paths
// absolute against nytimes.com before validation.
func nytImageURL(media []nytMedia) *string {
	if len(media) == 0 || media[0].URL == "" {
		return nil
	}
	raw := media[0].URL
	if !strings.HasPrefix(raw, "http") {
		raw = "https://www.nytimes.com/" + raw
	}
	return news.ValidateImageURL(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type nytResponse struct {
	Response struct {
		Docs []nytDoc `json:"docs"`
	} `json:"response"`
}

type nytDoc struct {
	WebURL        string `json:"web_url"`
	Abstract      string `json:"abstract"`
	Snippet       string `json:"snippet"`
	LeadParagraph string `json:"lead_paragraph"`
	PubDate       string `json:"pub_date"`
	SectionName   string `json:"section_name"`
	Headline      struct {
		Main string `json:"main"`
	} `json:"headline"`
	Byline     nytByline  `json:"byline"`
	Multimedia []nytMedia `json:"multimedia"`
}

type nytByline struct {
	Original string `json:"original"`
	Person   []struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
	} `json:"person"`
}

type nytMedia struct {
	URL string `json:"url"`
}
