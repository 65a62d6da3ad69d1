package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

var _ Source = (*GoogleNewsClient)(nil)

// GoogleNewsClient searches articles via the Google News RSS search feed.
// No API key required, which makes it the fallback backend.
type GoogleNewsClient struct {
	endpoint     string
	userAgent    string
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
}

func NewGoogleNewsClient(userAgent string, httpClient *http.Client) *GoogleNewsClient {
	return &GoogleNewsClient{
		endpoint:     "https://news.google.com/rss/search",
		userAgent:    userAgent,
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
	}
}

func (c *GoogleNewsClient) Search(ctx context.Context, keyword string) ([]RawArticle, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d %s", ErrSourceUnavailable, resp.StatusCode, resp.Status)
	}

	feed, err := c.gofeedParser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed: %v", ErrSourceUnavailable, err)
	}

	articles := make([]RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		title, source := splitPublisher(item.Title)
		article := RawArticle{
			Title:       title,
			Description: item.Description,
			URL:         item.Link,
			Source:      source,
		}

		if item.PublishedParsed != nil {
			article.PublishedAt = item.PublishedParsed
		}

		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// splitPublisher separates the publisher name Google News appends to item
// titles as "Headline - Publisher". Titles without the suffix pass through
// with an empty source.
func splitPublisher(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx < 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}
