package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"codeberg.org/readeck/go-readability"
)

// ContentExtractor fetches an article page and extracts its readable content.
type ContentExtractor struct {
	userAgent  string
	httpClient *http.Client
}

func NewContentExtractor(userAgent string, httpClient *http.Client) *ContentExtractor {
	return &ContentExtractor{
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

func (e *ContentExtractor) Run(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid article URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from article page")
	}

	slog.Debug("Content extracted successfully",
		"url", rawURL,
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}
