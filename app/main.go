package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvoss/newstrack/app/api"
	"github.com/nvoss/newstrack/app/cfg"
	"github.com/nvoss/newstrack/app/database"
	"github.com/nvoss/newstrack/app/news"
	"github.com/nvoss/newstrack/app/tasks"
	"github.com/nvoss/newstrack/app/tracker"
	"github.com/nvoss/newstrack/app/watchlist"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting newstrack server", "version", appCfg.Version)

	// Database connection
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()
	slog.Info("Database opened", "path", appCfg.DBPath)

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	slog.Info("Migrations applied", "version", version, "dirty", dirty)

	// Initialize repositories
	articleRepo := database.NewArticleRepository(db)
	storyRepo := database.NewStoryRepository(db)
	linkRepo := database.NewLinkRepository(db)

	// News source selection
	httpClient := &http.Client{Timeout: 30 * time.Second}

	var source news.Source
	switch appCfg.NewsSource {
	case "googlenews":
		source = news.NewGoogleNewsClient(appCfg.UserAgent, httpClient)
	default:
		if appCfg.NewsAPIKey == "" {
			log.Fatal("NEWS_API_KEY is required for the newsapi backend")
		}
		source = news.NewClient(appCfg.NewsAPIUrl, appCfg.NewsAPIKey,
			appCfg.NewsPageSize, appCfg.UserAgent, httpClient)
	}
	slog.Info("News source configured", "backend", appCfg.NewsSource)

	// Core service
	service := tracker.NewService(articleRepo, storyRepo, linkRepo, source,
		time.Duration(appCfg.SourceTimeout)*time.Second)

	// Optional watchlist seeding
	watchlists, err := watchlist.Load(appCfg.WatchlistFile)
	if err != nil {
		log.Fatal("Failed to load watchlist:", err)
	}
	if len(watchlists) > 0 {
		slog.Info("Watchlist loaded", "file", appCfg.WatchlistFile, "entries", len(watchlists))
	}

	// Initialize and start scheduler
	extractor := news.NewContentExtractor(appCfg.UserAgent, httpClient)
	scheduler := tasks.NewScheduler(service, storyRepo, articleRepo, extractor, watchlists)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started",
		"workers", appCfg.WorkerCount,
		"interval", (time.Duration(appCfg.SchedulerInterval) * time.Second).String())

	// Initialize HTTP server
	handler := api.NewHandler(service, articleRepo, storyRepo, linkRepo, scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Server shutdown complete")
}
