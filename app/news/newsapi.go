package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var _ Source = (*Client)(nil)

// Client searches articles via the News API "everything" endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	pageSize   int
	userAgent  string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string, pageSize int, userAgent string, httpClient *http.Client) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		pageSize:   pageSize,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// sourceField accepts both the structured {"name": "CNN"} shape and a plain
// "CNN" string and always yields the name.
type sourceField string

func (s *sourceField) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = sourceField(plain)
		return nil
	}

	var structured struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &structured); err != nil {
		return fmt.Errorf("failed to parse source field: %w", err)
	}

	*s = sourceField(structured.Name)
	return nil
}

type newsAPIArticle struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Content     string      `json:"content"`
	URL         string      `json:"url"`
	Source      sourceField `json:"source"`
	URLToImage  string      `json:"urlToImage"`
	PublishedAt *time.Time  `json:"publishedAt"`
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

func (c *Client) Search(ctx context.Context, keyword string) ([]RawArticle, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("apiKey", c.apiKey)
	params.Set("pageSize", strconv.Itoa(c.pageSize))

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

	var body newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrSourceUnavailable, err)
	}

	if body.Status != "ok" {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, body.Message)
	}

	articles := make([]RawArticle, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.URL == "" {
			continue
		}
		articles = append(articles, RawArticle{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			Source:      string(a.Source),
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}

	return articles, nil
}
