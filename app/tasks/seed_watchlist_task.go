package tasks

import (
	"context"
	"log/slog"

	"github.com/nvoss/newstrack/app/tracker"
	"github.com/nvoss/newstrack/app/watchlist"
)

// SeedWatchlistTask ensures every keyword of a watchlist entry is tracked.
// CreateAndSeed is idempotent per (user, keyword), so re-running the task on
// every startup is safe.
type SeedWatchlistTask struct {
	Task
	entry   watchlist.Entry
	service *tracker.Service
}

func NewSeedWatchlistTask(entry watchlist.Entry, service *tracker.Service) *SeedWatchlistTask {
	return &SeedWatchlistTask{
		Task:    NewTask(TaskTypeSeedWatchlist, entry.User),
		entry:   entry,
		service: service,
	}
}

func (t *SeedWatchlistTask) Execute(ctx context.Context) error {
	seeded := 0
	for _, keyword := range t.entry.Keywords {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := t.service.CreateAndSeed(ctx, t.entry.User, keyword, ""); err != nil {
			slog.Warn("Failed to seed watchlist keyword",
				"user", t.entry.User, "keyword", keyword, "error", err)
			continue
		}
		seeded++
	}

	slog.Info("Task completed",
		"type", "SeedWatchlist",
		"user", t.entry.User,
		"duration", t.GetDuration(),
		"keywords", len(t.entry.Keywords),
		"seeded", seeded)

	return nil
}
