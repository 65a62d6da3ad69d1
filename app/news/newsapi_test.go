package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(server.URL, "test-key", 20, "newstrack-test/1.0", server.Client())
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "rockets" {
			t.Errorf("Expected q=rockets, got '%s'", got)
		}
		if got := r.URL.Query().Get("apiKey"); got != "test-key" {
			t.Errorf("Expected apiKey=test-key, got '%s'", got)
		}
		if got := r.URL.Query().Get("pageSize"); got != "20" {
			t.Errorf("Expected pageSize=20, got '%s'", got)
		}
		if got := r.Header.Get("User-Agent"); got != "newstrack-test/1.0" {
			t.Errorf("Expected custom user agent, got '%s'", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"title": "Launch succeeds",
					"description": "Another one up",
					"url": "https://example.com/launch",
					"source": {"name": "Example Times"},
					"urlToImage": "https://example.com/launch.jpg",
					"publishedAt": "2025-06-01T12:00:00Z"
				},
				{
					"title": "Legacy shape",
					"url": "https://example.com/legacy",
					"source": "Plain String Daily"
				},
				{
					"title": "No URL, dropped",
					"source": {"name": "Nowhere"}
				}
			]
		}`))
	})

	articles, err := client.Search(context.Background(), "rockets")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles (URL-less dropped), got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "Launch succeeds" || first.Source != "Example Times" {
		t.Errorf("Unexpected first article: %+v", first)
	}
	if first.ImageURL != "https://example.com/launch.jpg" {
		t.Errorf("Unexpected image URL: '%s'", first.ImageURL)
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if first.PublishedAt == nil || !first.PublishedAt.Equal(want) {
		t.Errorf("Unexpected published at: %v", first.PublishedAt)
	}

	// Source arrives as a bare string in older payloads
	if articles[1].Source != "Plain String Daily" {
		t.Errorf("Expected plain string source parsed, got '%s'", articles[1].Source)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "articles": []}`))
	})

	articles, err := client.Search(context.Background(), "nothing matches this")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("Expected no articles, got %d", len(articles))
	}
}

func TestSearchHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "rockets")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestSearchAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "message": "apiKeyInvalid"}`))
	})

	_, err := client.Search(context.Background(), "rockets")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestSearchMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})

	_, err := client.Search(context.Background(), "rockets")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestSearchUnreachableEndpoint(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "test-key", 20, "newstrack-test/1.0",
		&http.Client{Timeout: time.Second})

	_, err := client.Search(context.Background(), "rockets")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestSearchHonorsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "rockets")
	if err == nil {
		t.Error("Expected error from expired context")
	}
}
