// Package queue runs uploaded recordings through the analysis pipeline in the background.
package queue

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/models"
)

// AnalysisJob is one uploaded recording waiting for analysis.
type AnalysisJob struct {
	QuestionID primitive.ObjectID
	Mode       models.RecordingMode
	Media      *models.Blob
	Interview  models.InterviewContext
}

// MemoryQueue is an in-memory bounded job queue.
type MemoryQueue struct {
	jobs     chan AnalysisJob
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewMemoryQueue creates a new in-memory queue with the given capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{
		jobs:     make(chan AnalysisJob, capacity),
		capacity: capacity,
	}
}

// Enqueue adds a job without blocking. The read lock is held for the whole
// send so Close cannot close the channel underneath it.
func (q *MemoryQueue) Enqueue(job AnalysisJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue returns the next job. Jobs enqueued before Close are still returned.
func (q *MemoryQueue) Dequeue(ctx context.Context) (AnalysisJob, error) {
	select {
	case <-ctx.Done():
		return AnalysisJob{}, ctx.Err()
	case job, ok := <-q.jobs:
		if !ok {
			return AnalysisJob{}, ErrQueueClosed
		}
		return job, nil
	}
}

// Close stops accepting jobs. It is idempotent.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}

// Len returns the current number of jobs in the queue.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the queue capacity.
func (q *MemoryQueue) Capacity() int {
	return q.capacity
}
