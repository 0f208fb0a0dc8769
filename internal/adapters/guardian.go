package adapters

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mvettori/newsdesk/internal/config"
	"github.com/mvettori/newsdesk/internal/news"
)

const guardianName = "Guardian"

// Guardian fetches from the Guardian content API. It issues a single
// non-retried request per run.
type Guardian struct {
	cfg    config.ProviderConfig
	client *http.Client
}

// NewGuardian creates the adapter with its own HTTP client and timeout.
func NewGuardian(cfg config.ProviderConfig) *Guardian {
	return &Guardian{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Adapter.
func (a *Guardian) Name() string { return guardianName }

// FetchAndAdapt implements Adapter. In-batch duplicate URLs are last-wins.
func (a *Guardian) FetchAndAdapt(ctx context.Context) []news.CanonicalArticle {
	params := url.Values{}
	params.Set("api-key", a.cfg.Key)
	params.Set("q", "technology")
	params.Set("show-fields", "byline,thumbnail,bodyText")
	params.Set("page-size", "10")

	resp, err := get(ctx, a.client, a.cfg.BaseURL+"/search", params)
	if err != nil {
		slog.Error("guardian: request failed", "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logStatus(guardianName, resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		slog.Error("guardian: read body", "err", err)
		return nil
	}

	var payload guardianResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Error("guardian: malformed payload", "err", err)
		return nil
	}

	if len(payload.Response.Results) == 0 {
		slog.Warn("guardian: returned no articles")
		return nil
	}

	return a.transform(payload.Response.Results)
}

func (a *Guardian) transform(raw []guardianResult) []news.CanonicalArticle {
	var out []news.CanonicalArticle
	index := make(map[string]int)

	for _, item := range raw {
		if item.WebURL == "" || item.WebTitle == "" {
			continue
		}

		// The Guardian never republishes without a date, but the record is
		// useless to the feed ordering without one.
		published := news.ParseDate(item.WebPublicationDate)
		if published == nil {
			continue
		}

		author := news.CleanAuthorName(item.Fields.Byline)
		if author == news.Unknown {
			author = "The Guardian"
		}

		category := item.SectionName
		if category == "" {
			category = news.GeneralCategory
		}

		description := news.SanitizeText(item.Fields.BodyText)
		title := news.SanitizeText(item.WebTitle)
		if description == "" {
			description = title
		}

		ca := news.CanonicalArticle{
			SourceName:   "The Guardian",
			AuthorName:   author,
			CategoryName: category,
			Title:        title,
			Description:  description,
			ArticleURL:   item.WebURL,
			ImageURL:     news.ValidateImageURL(item.Fields.Thumbnail),
			PublishedAt:  published,
		}

		// Duplicate URLs within the batch: last one wins.
		if i, seen := index[ca.ArticleURL]; seen {
			out[i] = ca
			continue
		}
		index[ca.ArticleURL] = len(out)
		out = append(out, ca)
	}

	return out
}

type guardianResponse struct {
	Response struct {
		Status  string           `json:"status"`
		Total   int              `json:"total"`
		Results []guardianResult `json:"results"`
	} `json:"response"`
}

type guardianResult struct {
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	WebPublicationDate string `json:"webPublicationDate"`
	SectionName        string `json:"sectionName"`
	Fields             struct {
		Byline    string `json:"byline"`
		Thumbnail string `json:"thumbnail"`
		BodyText  string `json:"bodyText"`
	} `json:"fields"`
}
