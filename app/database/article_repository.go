package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

// SQLArticleRepository handles database operations for deduplicated articles
type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

// Upsert inserts the article if its URL is unseen and returns the canonical
// id. ON CONFLICT DO NOTHING makes the insert a no-op when another writer got
// there first; the follow-up select resolves the winning row's id, so
// concurrent upserts of the same URL converge on a single row.
func (r *SQLArticleRepository) Upsert(article NewArticle) (string, error) {
	if article.URL == "" {
		return "", fmt.Errorf("article URL is required")
	}

	now := time.Now().UTC()
	publishedAt := now
	if article.PublishedAt != nil {
		publishedAt = article.PublishedAt.UTC()
	}

	extractionStatus := ExtractionPending
	if article.Content != "" {
		extractionStatus = ExtractionSkipped
	}

	_, err := r.db.Exec(`
		INSERT INTO articles (
			id, url, title, summary, content, source,
			image_url, published_at, extraction_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING
	`, uuid.NewString(), article.URL, article.Title, article.Summary,
		article.Content, article.Source, article.ImageURL, publishedAt,
		extractionStatus, now)
	if err != nil {
		return "", fmt.Errorf("failed to upsert article: %w", err)
	}

	var id string
	err = r.db.QueryRow(`SELECT id FROM articles WHERE url = ?`, article.URL).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve article id: %w", err)
	}

	return id, nil
}

func (r *SQLArticleRepository) GetByID(articleID string) (*Article, error) {
	return r.getOne(`WHERE id = ?`, articleID)
}

func (r *SQLArticleRepository) GetByURL(url string) (*Article, error) {
	return r.getOne(`WHERE url = ?`, url)
}

func (r *SQLArticleRepository) getOne(where string, arg string) (*Article, error) {
	var article Article
	err := r.db.QueryRow(`
		SELECT id, url, title, summary, content, source, image_url,
		       published_at, extraction_status, created_at
		FROM articles `+where,
		arg).Scan(
		&article.ID, &article.URL, &article.Title, &article.Summary,
		&article.Content, &article.Source, &article.ImageURL,
		&article.PublishedAt, &article.ExtractionStatus, &article.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return &article, nil
}

func (r *SQLArticleRepository) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// GetArticlesForExtraction returns articles whose content is still to be
// fetched, oldest first.
func (r *SQLArticleRepository) GetArticlesForExtraction(limit int) ([]ArticleForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, url
		FROM articles
		WHERE extraction_status = ?
		ORDER BY created_at
		LIMIT ?
	`, ExtractionPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for extraction: %w", err)
	}
	defer rows.Close()

	var articles []ArticleForExtraction
	for rows.Next() {
		var article ArticleForExtraction
		if err := rows.Scan(&article.ID, &article.URL); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// UpdateExtractedContent fills the article content only while it is still
// empty. Upserted content always wins over extraction.
func (r *SQLArticleRepository) UpdateExtractedContent(articleID string, content string, status string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET content = CASE WHEN content = '' THEN ? ELSE content END,
		    extraction_status = ?
		WHERE id = ?
	`, content, status, articleID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func (r *SQLArticleRepository) UpdateExtractionStatus(articleID string, status string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET extraction_status = ?
		WHERE id = ?
	`, status, articleID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}
