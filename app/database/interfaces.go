package database

import (
	"time"
)

// NewArticle carries the normalized fields of a fetched article into Upsert.
// The source is always a plain string here; the news boundary flattens
// structured source objects before they reach storage.
type NewArticle struct {
	URL         string
	Title       string
	Summary     string
	Content     string
	Source      string
	ImageURL    string
	PublishedAt *time.Time
}

type ArticleRepository interface {
	// Upsert inserts the article unless a row with the same URL exists and
	// returns the canonical article id either way. Existing rows are never
	// overwritten: first-seen data wins.
	Upsert(article NewArticle) (string, error)
	GetByID(articleID string) (*Article, error)
	GetByURL(url string) (*Article, error)
	GetArticleCount() (int, error)

	GetArticlesForExtraction(limit int) ([]ArticleForExtraction, error)
	UpdateExtractedContent(articleID string, content string, status string) error
	UpdateExtractionStatus(articleID string, status string) error
}

type StoryRepository interface {
	// GetOrCreate returns the story for (userID, keyword), creating it when
	// absent. The second result reports whether a new row was created.
	GetOrCreate(userID, keyword string) (*Story, bool, error)
	Get(storyID string) (*Story, error)
	ListByUser(userID string) ([]Story, error)
	ListAll() ([]StoryRef, error)
	// Delete removes the story only when it belongs to userID and reports
	// whether a row was deleted. Link rows cascade; articles stay.
	Delete(userID, storyID string) (bool, error)
	Touch(storyID string) error
	GetStoryCount() (int, error)
}

type LinkRepository interface {
	// LinkIfAbsent creates the (storyID, articleID) link unless it already
	// exists and reports whether a new row was created.
	LinkIfAbsent(storyID, articleID string) (bool, error)
	GetLinkedArticleIDs(storyID string) (map[string]struct{}, error)
	// ListArticles returns the story's articles most recently linked first.
	ListArticles(storyID string) ([]LinkedArticle, error)
	GetLinkCount() (int, error)
}
