package queue

import "context"

//go:generate mockgen -destination=mocks/mock_queue.go -package=mocks mockai/internal/queue Queue

// Queue defines the interface for analysis job queue operations.
type Queue interface {
	Enqueue(job AnalysisJob) error
	// Dequeue blocks until a job is available, ctx is done or the queue is closed.
	Dequeue(ctx context.Context) (AnalysisJob, error)
	Close()
	Len() int
	Capacity() int
}

var _ Queue = (*MemoryQueue)(nil)
