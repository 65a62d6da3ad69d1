package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nvoss/newstrack/app/tracker"
)

// RefreshStoryTask runs one fetch-dedup-link cycle for a single tracked
// story. One task per story keeps a failing or slow keyword from holding up
// the rest of the cycle.
type RefreshStoryTask struct {
	Task
	Keyword string
	service *tracker.Service
}

func NewRefreshStoryTask(storyID, keyword string, service *tracker.Service) *RefreshStoryTask {
	return &RefreshStoryTask{
		Task:    NewTask(TaskTypeRefreshStory, storyID),
		Keyword: keyword,
		service: service,
	}
}

func (t *RefreshStoryTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	created, err := t.service.RefreshStory(ctx, t.Subject)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			// Story deleted between enqueue and execution.
			slog.Debug("Story gone, skipping refresh", "story", t.Subject)
			return nil
		}
		return fmt.Errorf("failed to refresh story: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshStory",
		"story", t.Subject,
		"keyword", t.Keyword,
		"duration", t.GetDuration(),
		"new", created)

	return nil
}
