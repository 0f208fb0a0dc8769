package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mvettori/newsdesk/internal/config"
	"github.com/mvettori/newsdesk/internal/kv"
	"github.com/mvettori/newsdesk/internal/news"
)

const (
	newsAPIName       = "NewsAPI"
	newsAPIRetries    = 3
	newsAPIRetryDelay = time.Second
	newsAPICacheTTL   = time.Hour
)

// NewsAPI fetches from newsapi.org's /everything endpoint. Transient
// connection failures are retried a fixed number of times with a fixed delay,
// and successful batches are cached in the kv store keyed by the current hour
// so repeated invocations inside one hour-bucket don't hit the provider again.
type NewsAPI struct {
	cfg    config.ProviderConfig
	client *http.Client
	cache  kv.Store
	now    func() time.Time
}

// NewNewsAPI creates the adapter with its own HTTP client and timeout.
func NewNewsAPI(cfg config.ProviderConfig, cache kv.Store) *NewsAPI {
	return &NewsAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		now:    time.Now,
	}
}

// Name implements Adapter.
func (a *NewsAPI) Name() string { return newsAPIName }

// FetchAndAdapt implements Adapter. In-batch duplicate URLs are last-wins.
func (a *NewsAPI) FetchAndAdapt(ctx context.Context) []news.CanonicalArticle {
	cacheKey := "newsapi_articles_" + a.now().UTC().Format("2006-01-02-15")

	if cached, ok, err := a.cache.Get(ctx, cacheKey); err == nil && ok {
		var articles []news.CanonicalArticle
		if err := json.Unmarshal([]byte(cached), &articles); err == nil {
			slog.Debug("newsapi: using cached batch", "key", cacheKey, "count", len(articles))
			return articles
		}
	}

	body, status, err := a.fetch(ctx)
	if err != nil {
		slog.Error("newsapi: connection failed", "err", err)
		return nil
	}
	if status != http.StatusOK {
		logStatus(newsAPIName, status)
		return nil
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.Error("newsapi: malformed payload", "err", err)
		return nil
	}

	if len(payload.Articles) == 0 {
		slog.Warn("newsapi: returned no articles")
		return nil
	}

	articles := a.transform(payload.Articles)

	if encoded, err := json.Marshal(articles); err == nil {
		if err := a.cache.Put(ctx, cacheKey, string(encoded), newsAPICacheTTL); err != nil {
			slog.Warn("newsapi: cache write failed", "err", err)
		}
	}

	return articles
}

// fetch issues the request, retrying transient connection failures with a
// fixed delay. HTTP-level failures (non-2xx) are not retried.
func (a *NewsAPI) fetch(ctx context.Context) (body []byte, status int, err error) {
	params := url.Values{}
	params.Set("q", "technology")
	params.Set("apiKey", a.cfg.Key)
	params.Set("pageSize", "10")
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")

	for attempt := 1; attempt <= newsAPIRetries; attempt++ {
		var resp *http.Response
		resp, err = get(ctx, a.client, a.cfg.BaseURL+"/everything", params)
		if err == nil {
			defer resp.Body.Close()
			body, err = io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
			if err != nil {
				return nil, 0, fmt.Errorf("read body: %w", err)
			}
			return body, resp.StatusCode, nil
		}

		if attempt == newsAPIRetries || ctx.Err() != nil {
			break
		}
		slog.Warn("newsapi: retrying after connection failure", "attempt", attempt, "err", err)
		select {
		case <-time.After(newsAPIRetryDelay):
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	return nil, 0, err
}

func (a *NewsAPI) transform(raw []newsAPIArticle) []news.CanonicalArticle {
	var out []news.CanonicalArticle
	index := make(map[string]int)

	for _, item := range raw {
		if item.URL == "" || item.Title == "" {
			continue
		}

		sourceName := item.Source.Name
		if sourceName == "" {
			sourceName = news.Unknown
		}

		ca := news.CanonicalArticle{
			SourceName:   sourceName,
			AuthorName:   news.CleanAuthorName(item.Author),
			CategoryName: news.GeneralCategory,
			Title:        news.SanitizeText(item.Title),
			Description:  news.SanitizeText(item.Description),
			ArticleURL:   item.URL,
			ImageURL:     news.ValidateImageURL(item.URLToImage),
			PublishedAt:  news.ParseDate(item.PublishedAt),
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

type newsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}
