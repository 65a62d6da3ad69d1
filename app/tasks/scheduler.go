package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nvoss/newstrack/app/cfg"
	"github.com/nvoss/newstrack/app/database"
	"github.com/nvoss/newstrack/app/news"
	"github.com/nvoss/newstrack/app/tracker"
	"github.com/nvoss/newstrack/app/watchlist"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	service        *tracker.Service
	storyRepo      database.StoryRepository
	articleRepo    database.ArticleRepository
	extractor      *news.ContentExtractor
	watchlists     []watchlist.Entry
	extractContent bool
	interval       time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface
}

func NewScheduler(service *tracker.Service, storyRepo database.StoryRepository,
	articleRepo database.ArticleRepository, extractor *news.ContentExtractor,
	watchlists []watchlist.Entry) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		service:        service,
		storyRepo:      storyRepo,
		articleRepo:    articleRepo,
		extractor:      extractor,
		watchlists:     watchlists,
		extractContent: cfg.ExtractContent,
		interval:       time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:    cfg.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) GetQueueLength() int {
	return len(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueStartupTasks seeds the watchlists and then runs a normal refresh
// cycle so freshly started instances serve populated stories right away.
func (s *Scheduler) enqueueStartupTasks() {
	for _, entry := range s.watchlists {
		seedTask := NewSeedWatchlistTask(entry, s.service)
		if err := s.EnqueueTask(seedTask); err != nil {
			slog.Warn("Failed to enqueue SeedWatchlistTask", "user", entry.User, "error", err)
		}
	}

	s.enqueueTasks()
}

// enqueueTasks fans the bulk refresh out as one task per tracked story, so a
// failing story never blocks its siblings, plus one extraction batch when
// content extraction is enabled.
func (s *Scheduler) enqueueTasks() {
	refs, err := s.storyRepo.ListAll()
	if err != nil {
		slog.Error("Failed to list tracked stories for scheduling", "error", err)
		return
	}

	if len(refs) == 0 {
		slog.Debug("No tracked stories to refresh")
	} else {
		slog.Debug("Scheduling story refreshes", "count", len(refs))
	}

	for _, ref := range refs {
		refreshTask := NewRefreshStoryTask(ref.ID, ref.Keyword, s.service)
		if err := s.EnqueueTask(refreshTask); err != nil {
			slog.Warn("Failed to enqueue RefreshStoryTask",
				"story", ref.ID, "keyword", ref.Keyword, "error", err)
		}
	}

	if s.extractContent {
		extractTask := NewExtractContentTask(s.articleRepo, s.extractor)
		if err := s.EnqueueTask(extractTask); err != nil {
			slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
