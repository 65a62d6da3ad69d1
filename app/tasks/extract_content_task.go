package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvoss/newstrack/app/database"
	"github.com/nvoss/newstrack/app/news"
)

const extractionBatchSize = 20

// ExtractContentTask fills empty article content by fetching the article
// page and running readability extraction over it. Articles that arrived
// with content are skipped at upsert time and never reach this task.
type ExtractContentTask struct {
	Task
	articleRepo database.ArticleRepository
	extractor   *news.ContentExtractor
}

func NewExtractContentTask(articleRepo database.ArticleRepository, extractor *news.ContentExtractor) *ExtractContentTask {
	return &ExtractContentTask{
		Task:        NewTask(TaskTypeExtractContent, "articles"),
		articleRepo: articleRepo,
		extractor:   extractor,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	articles, err := t.articleRepo.GetArticlesForExtraction(extractionBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get articles for extraction: %w", err)
	}

	if len(articles) == 0 {
		return nil
	}

	extracted := 0
	failed := 0

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		content, err := t.extractor.Run(ctx, article.URL)
		if err != nil {
			failed++
			slog.Warn("Content extraction failed",
				"article", article.ID, "url", article.URL, "error", err)
			if err := t.articleRepo.UpdateExtractionStatus(article.ID, database.ExtractionFailed); err != nil {
				slog.Error("Failed to update extraction status",
					"article", article.ID, "error", err)
			}
			continue
		}

		if err := t.articleRepo.UpdateExtractedContent(article.ID, content, database.ExtractionSuccess); err != nil {
			failed++
			slog.Error("Failed to store extracted content",
				"article", article.ID, "error", err)
			continue
		}

		extracted++
	}

	slog.Info("Task completed",
		"type", "ExtractContent",
		"duration", t.GetDuration(),
		"total", len(articles),
		"extracted", extracted,
		"failed", failed)

	return nil
}
