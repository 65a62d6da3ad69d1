package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ StoryRepository = (*SQLStoryRepository)(nil)

// SQLStoryRepository handles database operations for tracked stories
type SQLStoryRepository struct {
	db *DB
}

func NewStoryRepository(db *DB) *SQLStoryRepository {
	return &SQLStoryRepository{db: db}
}

// GetOrCreate returns the story for (userID, keyword), creating it when
// absent. The UNIQUE(user_id, keyword) constraint plus ON CONFLICT DO NOTHING
// make concurrent calls converge on a single row; whoever loses the insert
// race reads the winner's row back.
func (r *SQLStoryRepository) GetOrCreate(userID, keyword string) (*Story, bool, error) {
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		INSERT INTO tracked_stories (id, user_id, keyword, created_at, last_updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, keyword) DO NOTHING
	`, uuid.NewString(), userID, keyword, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert tracked story: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	var story Story
	err = r.db.QueryRow(`
		SELECT id, user_id, keyword, created_at, last_updated_at
		FROM tracked_stories
		WHERE user_id = ? AND keyword = ?
	`, userID, keyword).Scan(
		&story.ID, &story.UserID, &story.Keyword,
		&story.CreatedAt, &story.LastUpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get tracked story: %w", err)
	}

	return &story, inserted > 0, nil
}

func (r *SQLStoryRepository) Get(storyID string) (*Story, error) {
	var story Story
	err := r.db.QueryRow(`
		SELECT id, user_id, keyword, created_at, last_updated_at
		FROM tracked_stories
		WHERE id = ?
	`, storyID).Scan(
		&story.ID, &story.UserID, &story.Keyword,
		&story.CreatedAt, &story.LastUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked story: %w", err)
	}

	return &story, nil
}

// ListByUser returns the user's stories, most recently created first.
func (r *SQLStoryRepository) ListByUser(userID string) ([]Story, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, keyword, created_at, last_updated_at
		FROM tracked_stories
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked stories: %w", err)
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		var story Story
		err := rows.Scan(
			&story.ID, &story.UserID, &story.Keyword,
			&story.CreatedAt, &story.LastUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, story)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating story rows: %w", err)
	}

	return stories, nil
}

// ListAll returns id and keyword for every tracked story. The bulk refresh
// job needs nothing more.
func (r *SQLStoryRepository) ListAll() ([]StoryRef, error) {
	rows, err := r.db.Query(`SELECT id, keyword FROM tracked_stories`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tracked stories: %w", err)
	}
	defer rows.Close()

	var refs []StoryRef
	for rows.Next() {
		var ref StoryRef
		if err := rows.Scan(&ref.ID, &ref.Keyword); err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating story rows: %w", err)
	}

	return refs, nil
}

// Delete removes the story only when it belongs to userID. A non-matching
// story id is reported as false, not an error. Link rows cascade.
func (r *SQLStoryRepository) Delete(userID, storyID string) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM tracked_stories
		WHERE id = ? AND user_id = ?
	`, storyID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete tracked story: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted > 0, nil
}

// Touch advances last_updated_at. Called only when a refresh linked at least
// one new article.
func (r *SQLStoryRepository) Touch(storyID string) error {
	_, err := r.db.Exec(`
		UPDATE tracked_stories
		SET last_updated_at = ?
		WHERE id = ?
	`, time.Now().UTC(), storyID)
	if err != nil {
		return fmt.Errorf("failed to touch tracked story: %w", err)
	}

	return nil
}

func (r *SQLStoryRepository) GetStoryCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracked_stories").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get story count: %w", err)
	}
	return count, nil
}
