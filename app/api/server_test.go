package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nvoss/newstrack/app/database"
	"github.com/nvoss/newstrack/app/news"
	"github.com/nvoss/newstrack/app/tasks"
	"github.com/nvoss/newstrack/app/tracker"
)

const testAPIKey = "test-api-key"

// stubSource serves canned results for every keyword.
type stubSource struct {
	articles []news.RawArticle
	err      error
}

func (s *stubSource) Search(ctx context.Context, keyword string) ([]news.RawArticle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

// stubScheduler counts enqueued tasks without running them.
type stubScheduler struct {
	queued int
}

func (s *stubScheduler) Start() {}

func (s *stubScheduler) Stop() {}

func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.queued++
	return nil
}

func (s *stubScheduler) GetQueueLength() int {
	return s.queued
}

var _ tasks.TaskSchedulerInterface = (*stubScheduler)(nil)

func newTestServer(t *testing.T, source news.Source) *gin.Engine {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	articleRepo := database.NewArticleRepository(db)
	storyRepo := database.NewStoryRepository(db)
	linkRepo := database.NewLinkRepository(db)

	service := tracker.NewService(articleRepo, storyRepo, linkRepo, source, 5*time.Second)
	handler := NewHandler(service, articleRepo, storyRepo, linkRepo, &stubScheduler{})

	return NewServer(handler, testAPIKey)
}

func doRequest(t *testing.T, server *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestCreateStoryEndpoint(t *testing.T) {
	server := newTestServer(t, &stubSource{articles: []news.RawArticle{
		{Title: "Launch succeeds", URL: "https://example.com/launch", Source: "Example Times"},
	}})

	w := doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "rockets"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["keyword"] != "rockets" {
		t.Errorf("Expected keyword 'rockets', got %v", body["keyword"])
	}
	articles, ok := body["articles"].([]interface{})
	if !ok || len(articles) != 1 {
		t.Errorf("Expected 1 seeded article, got %v", body["articles"])
	}
}

func TestCreateStoryRequiresUser(t *testing.T) {
	server := newTestServer(t, &stubSource{})

	w := doRequest(t, server, "POST", "/api/stories", "", `{"keyword": "rockets"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without X-User-ID, got %d", w.Code)
	}
}

func TestCreateStoryValidation(t *testing.T) {
	server := newTestServer(t, &stubSource{})

	w := doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank keyword, got %d", w.Code)
	}

	w = doRequest(t, server, "POST", "/api/stories", "u1", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", w.Code)
	}
}

func TestListStoriesEndpoint(t *testing.T) {
	server := newTestServer(t, &stubSource{})

	for _, keyword := range []string{"rockets", "satellites"} {
		w := doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "`+keyword+`"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", w.Code)
		}
	}

	w := doRequest(t, server, "GET", "/api/stories", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["total"] != float64(2) {
		t.Errorf("Expected total 2, got %v", body["total"])
	}

	// Another user sees none of them
	w = doRequest(t, server, "GET", "/api/stories", "u2", "")
	body = decodeBody(t, w)
	if body["total"] != float64(0) {
		t.Errorf("Expected total 0 for other user, got %v", body["total"])
	}
}

func TestGetStoryDetailsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubSource{})

	w := doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "rockets"}`)
	created := decodeBody(t, w)
	storyID := created["id"].(string)

	w = doRequest(t, server, "GET", "/api/stories/"+storyID, "u1", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	w = doRequest(t, server, "GET", "/api/stories/unknown", "u1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown story, got %d", w.Code)
	}
}

func TestRefreshStoryEndpoint(t *testing.T) {
	source := &stubSource{}
	server := newTestServer(t, source)

	w := doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "rockets"}`)
	created := decodeBody(t, w)
	storyID := created["id"].(string)

	source.articles = []news.RawArticle{
		{Title: "Launch succeeds", URL: "https://example.com/launch"},
	}

	w = doRequest(t, server, "POST", "/api/stories/"+storyID+"/refresh", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["new_articles"] != float64(1) {
		t.Errorf("Expected 1 new article, got %v", body["new_articles"])
	}

	w = doRequest(t, server, "POST", "/api/stories/unknown/refresh", "u1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown story, got %d", w.Code)
	}
}

func TestRefreshStoryEndpointSourceDown(t *testing.T) {
	source := &stubSource{}
	server := newTestServer(t, source)

	w := doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "rockets"}`)
	created := decodeBody(t, w)
	storyID := created["id"].(string)

	source.err = news.ErrSourceUnavailable

	w = doRequest(t, server, "POST", "/api/stories/"+storyID+"/refresh", "u1", "")
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 when the source is down, got %d", w.Code)
	}
}

func TestDeleteStoryEndpoint(t *testing.T) {
	server := newTestServer(t, &stubSource{})

	w := doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "rockets"}`)
	created := decodeBody(t, w)
	storyID := created["id"].(string)

	// Wrong user cannot delete
	w = doRequest(t, server, "DELETE", "/api/stories/"+storyID, "u2", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for non-owner delete, got %d", w.Code)
	}

	w = doRequest(t, server, "DELETE", "/api/stories/"+storyID, "u1", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for owner delete, got %d", w.Code)
	}

	w = doRequest(t, server, "GET", "/api/stories/"+storyID, "u1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestRefreshAllEndpoint(t *testing.T) {
	server := newTestServer(t, &stubSource{articles: []news.RawArticle{
		{Title: "Shared", URL: "https://example.com/shared"},
	}})

	for _, keyword := range []string{"rockets", "satellites"} {
		doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "`+keyword+`"}`)
	}

	w := doRequest(t, server, "POST", "/api/refresh", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	// Everything already linked during seeding
	if body["stories_updated"] != float64(0) || body["failures"] != float64(0) {
		t.Errorf("Unexpected stats: %v", body)
	}
}

func TestAuthMiddleware(t *testing.T) {
	server := newTestServer(t, &stubSource{})

	req := httptest.NewRequest("GET", "/api/stories", nil)
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/stories", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/stories", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("X-User-ID", "u1")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &stubSource{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if _, ok := body["timestamp"]; !ok {
		t.Error("Expected timestamp in health response")
	}
	if body["stories"] != float64(0) {
		t.Errorf("Expected 0 stories, got %v", body["stories"])
	}
	if body["queue_length"] != float64(0) {
		t.Errorf("Expected empty scheduler queue, got %v", body["queue_length"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubSource{articles: []news.RawArticle{
		{Title: "Launch succeeds", URL: "https://example.com/launch"},
	}})

	doRequest(t, server, "POST", "/api/stories", "u1", `{"keyword": "rockets"}`)

	req := httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	body := decodeBody(t, w)
	if body["stories"] != float64(1) || body["articles"] != float64(1) || body["links"] != float64(1) {
		t.Errorf("Unexpected stats: %v", body)
	}
}
