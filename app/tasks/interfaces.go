package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and API handlers to manage background
// processing of story refreshes and content extraction.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	// GetQueueLength reports the number of tasks waiting for a worker.
	GetQueueLength() int
}
