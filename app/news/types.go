package news

import (
	"context"
	"errors"
	"time"
)

// ErrSourceUnavailable marks network, quota and upstream failures of a news
// source. Refresh cycles treat it as "zero new articles this cycle".
var ErrSourceUnavailable = errors.New("news source unavailable")

// RawArticle is a search result normalized at the source boundary. Source is
// always a plain string here, whatever shape the backend returned it in.
type RawArticle struct {
	Title       string
	Description string
	Content     string
	URL         string
	Source      string
	ImageURL    string
	PublishedAt *time.Time
}

// Source searches a news backend by keyword. An empty result set is a valid
// response, not an error.
type Source interface {
	Search(ctx context.Context, keyword string) ([]RawArticle, error)
}
