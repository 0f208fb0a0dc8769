// Package news defines the canonical article shape shared by all provider
// adapters and the value rules used to normalize provider payloads into it.
package news

import "time"

// Unknown is the placeholder used when a provider gives no usable author or
// source name. The ingest engine maps it to a real reference row like any
// other name.
const Unknown = "Unknown"

// GeneralCategory is the fallback category for providers that don't
// categorize their articles.
const GeneralCategory = "General"

// CanonicalArticle is the common intermediate representation produced by
// every adapter. ArticleURL is the global identity key; Title and ArticleURL
// are required for a record to survive to persistence. The JSON tags exist
// because one adapter caches its transformed batch in the kv store.
type CanonicalArticle struct {
	SourceName   string     `json:"source_name"`
	AuthorName   string     `json:"author_name"`
	CategoryName string     `json:"category_name"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ArticleURL   string     `json:"article_url"`
	ImageURL     *string    `json:"image_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}
