package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nvoss/newstrack/app/news"
	"github.com/nvoss/newstrack/app/tracker"
)

// userID returns the caller identity forwarded by the gateway. Auth itself
// lives in the gateway; this service trusts the header.
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

func (h *Handler) CreateStory(c *gin.Context) {
	user := userID(c)
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-User-ID header"})
		return
	}

	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	details, err := h.service.CreateAndSeed(c.Request.Context(), user, req.Keyword, req.SourceArticleID)
	if err != nil {
		if errors.Is(err, tracker.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Failed to create story", "user", user, "keyword", req.Keyword, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create story"})
		return
	}

	c.JSON(http.StatusCreated, details)
}

func (h *Handler) ListStories(c *gin.Context) {
	user := userID(c)
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-User-ID header"})
		return
	}

	stories, err := h.service.ListForUser(c.Request.Context(), user)
	if err != nil {
		slog.Error("Failed to list stories", "user", user, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stories": stories,
		"total":   len(stories),
	})
}

func (h *Handler) GetStoryDetails(c *gin.Context) {
	storyID := c.Param("id")

	details, err := h.service.GetDetails(c.Request.Context(), storyID)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
			return
		}
		slog.Error("Failed to get story details", "story", storyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get story details"})
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) RefreshStory(c *gin.Context) {
	storyID := c.Param("id")

	created, err := h.service.RefreshStory(c.Request.Context(), storyID)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
			return
		}
		if errors.Is(err, news.ErrSourceUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "News source unavailable"})
			return
		}
		slog.Error("Failed to refresh story", "story", storyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh story"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"new_articles": created})
}

func (h *Handler) DeleteStory(c *gin.Context) {
	user := userID(c)
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing X-User-ID header"})
		return
	}

	storyID := c.Param("id")

	deleted, err := h.service.Delete(c.Request.Context(), user, storyID)
	if err != nil {
		slog.Error("Failed to delete story", "user", user, "story", storyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete story"})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RefreshAll(c *gin.Context) {
	stats, err := h.service.RefreshAll(c.Request.Context())
	if err != nil {
		slog.Error("Bulk refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Bulk refresh failed"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if storyCount, err := h.storyRepo.GetStoryCount(); err == nil {
		health["stories"] = storyCount
	}

	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		health["articles"] = articleCount
	}

	if h.scheduler != nil {
		health["queue_length"] = h.scheduler.GetQueueLength()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if storyCount, err := h.storyRepo.GetStoryCount(); err == nil {
		stats["stories"] = storyCount
	}

	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["articles"] = articleCount
	}

	if linkCount, err := h.linkRepo.GetLinkCount(); err == nil {
		stats["links"] = linkCount
	}

	c.JSON(http.StatusOK, stats)
}
