package database

import (
	"fmt"
	"time"
)

var _ LinkRepository = (*SQLLinkRepository)(nil)

// SQLLinkRepository handles database operations for story-article links
type SQLLinkRepository struct {
	db *DB
}

func NewLinkRepository(db *DB) *SQLLinkRepository {
	return &SQLLinkRepository{db: db}
}

// LinkIfAbsent creates the link unless the (story, article) pair already
// exists. The primary key on the pair guarantees at most one row even under
// concurrent calls; exactly one caller sees created = true.
func (r *SQLLinkRepository) LinkIfAbsent(storyID, articleID string) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO tracked_story_articles (story_id, article_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (story_id, article_id) DO NOTHING
	`, storyID, articleID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to link article to story: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return inserted > 0, nil
}

// GetLinkedArticleIDs returns the ids of all articles linked to the story.
// A refresh loads this once and checks candidates against it in memory
// instead of querying per candidate.
func (r *SQLLinkRepository) GetLinkedArticleIDs(storyID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(`
		SELECT article_id
		FROM tracked_story_articles
		WHERE story_id = ?
	`, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get linked article ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}

	return ids, nil
}

// ListArticles returns the story's articles, most recently linked first.
func (r *SQLLinkRepository) ListArticles(storyID string) ([]LinkedArticle, error) {
	rows, err := r.db.Query(`
		SELECT a.id, a.url, a.title, a.summary, a.content, a.source,
		       a.image_url, a.published_at, a.extraction_status, a.created_at,
		       l.added_at
		FROM tracked_story_articles l
		JOIN articles a ON a.id = l.article_id
		WHERE l.story_id = ?
		ORDER BY l.added_at DESC, l.rowid DESC
	`, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list story articles: %w", err)
	}
	defer rows.Close()

	var articles []LinkedArticle
	for rows.Next() {
		var article LinkedArticle
		err := rows.Scan(
			&article.ID, &article.URL, &article.Title, &article.Summary,
			&article.Content, &article.Source, &article.ImageURL,
			&article.PublishedAt, &article.ExtractionStatus, &article.CreatedAt,
			&article.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating linked article rows: %w", err)
	}

	return articles, nil
}

func (r *SQLLinkRepository) GetLinkCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracked_story_articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get link count: %w", err)
	}
	return count, nil
}
