package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nvoss/newstrack/app/database"
	"github.com/nvoss/newstrack/app/news"
)

// StoryDetails is a tracked story together with its linked articles, most
// recently linked first.
type StoryDetails struct {
	database.Story
	Articles []database.LinkedArticle `json:"articles"`
}

// RefreshStats aggregates one bulk refresh cycle.
type RefreshStats struct {
	StoriesUpdated int `json:"stories_updated"`
	NewArticles    int `json:"new_articles"`
	Failures       int `json:"failures"`
}

// Service implements story tracking: keyword subscriptions, article
// deduplication and the refresh cycle that links newly discovered articles
// to their stories.
type Service struct {
	articles      database.ArticleRepository
	stories       database.StoryRepository
	links         database.LinkRepository
	source        news.Source
	sourceTimeout time.Duration
}

func NewService(articles database.ArticleRepository, stories database.StoryRepository,
	links database.LinkRepository, source news.Source, sourceTimeout time.Duration) *Service {
	return &Service{
		articles:      articles,
		stories:       stories,
		links:         links,
		source:        source,
		sourceTimeout: sourceTimeout,
	}
}

// CreateAndSeed tracks the keyword for the user. A freshly created story is
// optionally seeded with the source article that prompted tracking, then
// refreshed synchronously so the caller immediately sees a populated story.
// A pre-existing story is returned as is: tracking is idempotent per keyword
// and repeat calls have no side effects.
func (s *Service) CreateAndSeed(ctx context.Context, userID, keyword, sourceArticleID string) (*StoryDetails, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrValidation)
	}

	story, created, err := s.stories.GetOrCreate(userID, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create story: %w", err)
	}

	if created {
		if sourceArticleID != "" {
			// The id is already known, no dedup lookup needed.
			if _, err := s.links.LinkIfAbsent(story.ID, sourceArticleID); err != nil {
				slog.Error("Failed to link source article",
					"story", story.ID, "article", sourceArticleID, "error", err)
			}
		}

		if _, err := s.refresh(ctx, story.ID, story.Keyword); err != nil {
			if !errors.Is(err, news.ErrSourceUnavailable) {
				return nil, fmt.Errorf("failed to seed story: %w", err)
			}
			// The story is tracked either way; articles arrive with the
			// next scheduled cycle.
			slog.Warn("News source unavailable during seeding",
				"story", story.ID, "keyword", story.Keyword, "error", err)
		}
	}

	return s.GetDetails(ctx, story.ID)
}

// RefreshStory fetches the story's keyword from the news source and links
// every article not yet linked. Returns the number of links created.
func (s *Service) RefreshStory(ctx context.Context, storyID string) (int, error) {
	story, err := s.stories.Get(storyID)
	if err != nil {
		return 0, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil {
		return 0, fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}

	return s.refresh(ctx, story.ID, story.Keyword)
}

// RefreshAll refreshes every tracked story. A failing story is counted and
// logged, its siblings still refresh. Only failing to list the stories at
// all aborts the cycle.
func (s *Service) RefreshAll(ctx context.Context) (RefreshStats, error) {
	var stats RefreshStats

	refs, err := s.stories.ListAll()
	if err != nil {
		return stats, fmt.Errorf("failed to list tracked stories: %w", err)
	}

	for _, ref := range refs {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		created, err := s.refresh(ctx, ref.ID, ref.Keyword)
		if err != nil {
			stats.Failures++
			slog.Error("Story refresh failed",
				"story", ref.ID, "keyword", ref.Keyword, "error", err)
			continue
		}

		if created > 0 {
			stats.StoriesUpdated++
			stats.NewArticles += created
		}
	}

	return stats, nil
}

// refresh runs one fetch-dedup-link cycle for a story. The news source call
// carries its own timeout so one slow keyword cannot stall a bulk
// cycle. Per-article failures are logged and yield partial results; a source
// failure surfaces as ErrSourceUnavailable for the caller to catalogue.
func (s *Service) refresh(ctx context.Context, storyID, keyword string) (int, error) {
	searchCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	raw, err := s.source.Search(searchCtx, keyword)
	if err != nil {
		return 0, fmt.Errorf("search for %q failed: %w", keyword, err)
	}

	if len(raw) == 0 {
		return 0, nil
	}

	// One pass over existing links for the whole batch.
	existing, err := s.links.GetLinkedArticleIDs(storyID)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing links: %w", err)
	}

	created := 0
	for _, article := range raw {
		if article.URL == "" {
			slog.Warn("Skipping article without URL",
				"story", storyID, "keyword", keyword, "title", article.Title)
			continue
		}

		articleID, err := s.articles.Upsert(database.NewArticle{
			URL:         article.URL,
			Title:       article.Title,
			Summary:     article.Description,
			Content:     article.Content,
			Source:      article.Source,
			ImageURL:    article.ImageURL,
			PublishedAt: article.PublishedAt,
		})
		if err != nil {
			slog.Error("Failed to store article",
				"story", storyID, "keyword", keyword, "url", article.URL, "error", err)
			continue
		}

		if _, linked := existing[articleID]; linked {
			continue
		}

		ok, err := s.links.LinkIfAbsent(storyID, articleID)
		if err != nil {
			slog.Error("Failed to link article",
				"story", storyID, "keyword", keyword, "url", article.URL, "error", err)
			continue
		}

		existing[articleID] = struct{}{}
		if ok {
			created++
		}
	}

	if created > 0 {
		if err := s.stories.Touch(storyID); err != nil {
			// Links are committed; the stale timestamp corrects itself on
			// the next successful cycle.
			slog.Error("Failed to touch story", "story", storyID, "error", err)
		}
	}

	return created, nil
}

// GetDetails returns the story with its linked articles. A story with zero
// articles is valid and distinct from an unknown story.
func (s *Service) GetDetails(ctx context.Context, storyID string) (*StoryDetails, error) {
	story, err := s.stories.Get(storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	if story == nil {
		return nil, fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}

	articles, err := s.links.ListArticles(storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story articles: %w", err)
	}
	if articles == nil {
		articles = []database.LinkedArticle{}
	}

	return &StoryDetails{Story: *story, Articles: articles}, nil
}

// ListForUser returns the user's stories newest first, each with its
// articles.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]StoryDetails, error) {
	stories, err := s.stories.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	details := make([]StoryDetails, 0, len(stories))
	for _, story := range stories {
		articles, err := s.links.ListArticles(story.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load story articles: %w", err)
		}
		if articles == nil {
			articles = []database.LinkedArticle{}
		}
		details = append(details, StoryDetails{Story: story, Articles: articles})
	}

	return details, nil
}

// Delete removes the user's story and its links. Articles are shared with
// other stories and bookmarks and are never deleted here. Returns false when
// no story matched the (user, id) pair.
func (s *Service) Delete(ctx context.Context, userID, storyID string) (bool, error) {
	deleted, err := s.stories.Delete(userID, storyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete story: %w", err)
	}

	return deleted, nil
}
