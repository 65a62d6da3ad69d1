package database

import (
	"time"
)

// Extraction status values for Article.ExtractionStatus.
const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
	ExtractionSkipped = "skipped"
)

// Article is a deduplicated news item. The URL is the dedup key: no two rows
// share a URL, and a second insert of the same URL resolves to the first row.
type Article struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	Content          string    `json:"content"`
	Source           string    `json:"source"`
	ImageURL         string    `json:"image_url"`
	PublishedAt      time.Time `json:"published_at"`
	ExtractionStatus string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// LinkedArticle is an article as it appears inside a tracked story, carrying
// the timestamp it was linked at.
type LinkedArticle struct {
	Article
	AddedAt time.Time `json:"added_at"`
}

// Story is a user's subscription to a keyword.
type Story struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Keyword       string    `json:"keyword"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// StoryRef is the minimal projection used by the bulk refresh job.
type StoryRef struct {
	ID      string
	Keyword string
}

// ArticleForExtraction is the projection handed to the content extractor.
type ArticleForExtraction struct {
	ID  string
	URL string
}
