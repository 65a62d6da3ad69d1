package api

import (
	"github.com/nvoss/newstrack/app/database"
	"github.com/nvoss/newstrack/app/tracker"
	"github.com/nvoss/newstrack/app/tasks"
)

type Handler struct {
	service     *tracker.Service
	articleRepo database.ArticleRepository
	storyRepo   database.StoryRepository
	linkRepo    database.LinkRepository
	scheduler   tasks.TaskSchedulerInterface
}

func NewHandler(service *tracker.Service, articleRepo database.ArticleRepository,
	storyRepo database.StoryRepository, linkRepo database.LinkRepository,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		service:     service,
		articleRepo: articleRepo,
		storyRepo:   storyRepo,
		linkRepo:    linkRepo,
		scheduler:   scheduler,
	}
}

type createStoryRequest struct {
	Keyword         string `json:"keyword"`
	SourceArticleID string `json:"source_article_id"`
}
