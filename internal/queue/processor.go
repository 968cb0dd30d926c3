package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mockai/internal/cache"
	apperrors "mockai/internal/errors"
	"mockai/internal/models"
	"mockai/internal/orchestrator"
)

// StatusUpdateTimeout bounds bookkeeping writes made after a job failed.
const StatusUpdateTimeout = 5 * time.Second

// FailureRecorder marks a result as failed at a pipeline stage.
type FailureRecorder interface {
	MarkFailed(ctx context.Context, questionID primitive.ObjectID, stage apperrors.Stage, message string) error
}

// ProcessorDeps are the collaborators of a Processor. ResultCache is optional.
type ProcessorDeps struct {
	Queue       *MemoryQueue
	Runner      orchestrator.Runner
	Failures    FailureRecorder
	Retries     cache.RetryStore
	ResultCache cache.ResultStore
	Workers     int
	Logger      logrus.FieldLogger
}

// Processor drains the queue with a fixed pool of workers. Failed jobs are
// never retried automatically: the result is marked failed and the recording
// is kept in the retry store until the user asks again.
type Processor struct {
	queue       *MemoryQueue
	runner      orchestrator.Runner
	failures    FailureRecorder
	retries     cache.RetryStore
	resultCache cache.ResultStore
	workerCount int
	log         logrus.FieldLogger

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewProcessor creates a new analysis job processor.
func NewProcessor(deps ProcessorDeps) *Processor {
	if deps.Workers < 1 {
		deps.Workers = 1
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Processor{
		queue:       deps.Queue,
		runner:      deps.Runner,
		failures:    deps.Failures,
		retries:     deps.Retries,
		resultCache: deps.ResultCache,
		workerCount: deps.Workers,
		log:         log,
	}
}

// Start begins processing jobs with the configured number of workers.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.log.WithField("workers", p.workerCount).Info("Analysis processor started")
}

// Stop closes the queue and waits for the workers to drain it.
func (p *Processor) Stop() {
	p.shutdownOnce.Do(p.queue.Close)
	p.wg.Wait()
	p.log.Info("Analysis processor stopped")
}

func (p *Processor) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.log.WithField("worker", id)
	log.Debug("Worker started")

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Debug("Worker shutting down")
				return
			}
			continue
		}
		p.processJob(ctx, job)
	}
}

func (p *Processor) processJob(ctx context.Context, job AnalysisJob) {
	qid := job.QuestionID.Hex()
	log := p.log.WithFields(logrus.Fields{"questionId": qid, "mode": job.Mode})
	log.Info("Processing analysis job")

	result, err := p.runner.Run(ctx, orchestrator.Job{
		Mode:      job.Mode,
		Media:     job.Media,
		Interview: job.Interview,
	}, func(status models.SessionStatus) {
		log.WithField("status", status).Debug("Analysis advanced")
	})
	if err != nil {
		p.handleFailure(job, err)
		return
	}

	bgCtx, cancel := context.WithTimeout(context.Background(), StatusUpdateTimeout)
	defer cancel()
	if err := p.retries.Delete(bgCtx, qid); err != nil {
		log.WithError(err).Warn("Failed to drop retry payload")
	}
	if p.resultCache != nil {
		if err := p.resultCache.Invalidate(bgCtx, qid); err != nil {
			log.WithError(err).Warn("Failed to invalidate cached result")
		}
	}

	log.WithField("score", result.Score).Info("Analysis completed")
}

// handleFailure uses a fresh context so a failure caused by shutdown is still recorded.
func (p *Processor) handleFailure(job AnalysisJob, cause error) {
	qid := job.QuestionID.Hex()
	stage, _ := apperrors.StageOf(cause)
	log := p.log.WithFields(logrus.Fields{"questionId": qid, "stage": stage})
	log.WithError(cause).Error("Analysis failed")

	ctx, cancel := context.WithTimeout(context.Background(), StatusUpdateTimeout)
	defer cancel()

	if err := p.failures.MarkFailed(ctx, job.QuestionID, stage, cause.Error()); err != nil {
		log.WithError(err).Error("Failed to mark result as failed")
	}

	payload := &cache.RetryPayload{
		Mode:      job.Mode,
		MIMEType:  job.Media.MIMEType,
		Media:     job.Media.Data,
		Interview: job.Interview,
	}
	if err := p.retries.Save(ctx, qid, payload); err != nil {
		log.WithError(err).Error("Failed to keep recording for retry")
	}
}
