package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mockai/internal/capture"
	apperrors "mockai/internal/errors"
	"mockai/internal/models"
	"mockai/internal/speech"
	"mockai/internal/timer"
)

// SessionOptions configures a Session. Callbacks run outside the session lock
// and may call back into the session.
type SessionOptions struct {
	Interview  models.InterviewContext
	Device     capture.Device
	Recognizer speech.Recognizer
	Pipeline   Runner

	WarningAfter time.Duration
	MaxDuration  time.Duration
	Clock        timer.Clock
	TempDir      string
	Logger       logrus.FieldLogger

	OnStateChange func(status models.SessionStatus)
	OnTick        func(elapsed time.Duration)
	OnWarning     func()
	OnTranscript  func(text string)
	// OnComplete runs exactly once per successful pipeline run.
	OnComplete func(result *models.ResultDisplay)
	OnFailure  func(stage apperrors.Stage, err error)
}

// Session is one rehearsal of one question: it records an answer and carries
// it through the pipeline. A session can be recorded again once it is done.
type Session struct {
	id       string
	opts     SessionOptions
	log      logrus.FieldLogger
	timer    *timer.Timer
	recorder *capture.Recorder
	captions *speech.Capture

	// op serializes the transitions that touch the device, so a slow Stop
	// finishes with its own take before the next Start opens another.
	op sync.Mutex

	mu          sync.Mutex
	status      models.SessionStatus
	mode        models.RecordingMode
	startedAt   time.Time
	media       *models.Blob
	extracted   *models.Blob
	transcript  string
	failedStage apperrors.Stage
	err         error
	result      *models.ResultDisplay
	ctx         context.Context
	cancel      context.CancelFunc
	generation  uint64
	inflight    sync.WaitGroup
}

// NewSession creates an idle session.
func NewSession(opts SessionOptions) *Session {
	if opts.Recognizer == nil {
		opts.Recognizer = speech.NopRecognizer{}
	}
	id := uuid.NewString()
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{"sessionId": id, "questionId": opts.Interview.QuestionID})

	s := &Session{
		id:     id,
		opts:   opts,
		log:    log,
		status: models.StatusIdle,
	}
	s.captions = speech.NewCapture(opts.Recognizer, speech.Options{
		OnUpdate: opts.OnTranscript,
		Logger:   log,
	})
	s.recorder = capture.NewRecorder(opts.Device, capture.RecorderOptions{
		OnChunk: s.captions.Feed,
		TempDir: opts.TempDir,
		Logger:  log,
	})
	s.timer = timer.New(timer.Options{
		WarningAfter: opts.WarningAfter,
		MaxDuration:  opts.MaxDuration,
		Clock:        opts.Clock,
		OnTick:       opts.OnTick,
		OnWarning:    s.onWarning,
		OnTimeUp:     s.onTimeUp,
	})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Recorder returns the media recorder, e.g. for previews of the last take.
func (s *Session) Recorder() *capture.Recorder { return s.recorder }

// Status returns the current state.
func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error of a failed session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Result returns the display model of a completed session.
func (s *Session) Result() *models.ResultDisplay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() models.RecordingSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.RecordingSession{
		ID:             s.id,
		QuestionID:     s.opts.Interview.QuestionID,
		Mode:           s.mode,
		Status:         s.status,
		StartedAt:      s.startedAt,
		ElapsedSeconds: s.timer.Seconds(),
		MediaBlob:      s.media,
		ExtractedAudio: s.extracted,
		LiveTranscript: s.transcript,
		FailedStage:    string(s.failedStage),
	}
	if s.status == models.StatusRecording {
		snap.LiveTranscript = s.captions.Text()
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// Start begins recording in mode. Timer, captions and recorder start together;
// if one of them fails the others are released and the session returns to Idle.
func (s *Session) Start(ctx context.Context, mode models.RecordingMode) error {
	if _, ok := models.ParseRecordingMode(string(mode)); !ok {
		return apperrors.ErrInvalidMode
	}

	s.op.Lock()
	s.mu.Lock()
	switch {
	case s.status == models.StatusRecording:
		s.mu.Unlock()
		s.op.Unlock()
		return apperrors.ErrAlreadyRecording
	case s.status != models.StatusIdle && !s.status.Terminal():
		s.mu.Unlock()
		s.op.Unlock()
		return apperrors.ErrSessionBusy
	}
	s.generation++
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.mode = mode
	s.media = nil
	s.extracted = nil
	s.transcript = ""
	s.result = nil
	s.err = nil
	s.failedStage = ""

	if err := s.recorder.StartRecording(runCtx, mode); err != nil {
		s.rollbackLocked()
		s.mu.Unlock()
		s.op.Unlock()
		s.log.WithError(err).Warn("recording could not start")
		s.notify(models.StatusIdle)
		return err
	}
	if err := s.captions.Start(runCtx, s.recorder.MIMEType()); err != nil {
		s.recorder.Discard()
		s.rollbackLocked()
		s.mu.Unlock()
		s.op.Unlock()
		s.log.WithError(err).Warn("captions could not start")
		s.notify(models.StatusIdle)
		return err
	}
	s.timer.Reset()
	s.timer.Start()
	s.startedAt = s.timer.StartedAt()
	s.status = models.StatusRecording
	s.mu.Unlock()
	s.op.Unlock()

	s.log.WithField("mode", mode).Info("recording started")
	s.notify(models.StatusRecording)
	return nil
}

func (s *Session) rollbackLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.status = models.StatusIdle
	s.mode = ""
}

// Stop ends the recording and continues with the pipeline in the background.
func (s *Session) Stop() error {
	s.op.Lock()
	s.mu.Lock()
	if s.status != models.StatusRecording {
		s.mu.Unlock()
		s.op.Unlock()
		return apperrors.ErrNotRecording
	}
	s.status = models.StatusStopped
	gen := s.generation
	runCtx := s.ctx
	s.mu.Unlock()

	s.timer.Stop()
	s.captions.Stop()
	blob, err := s.recorder.StopRecording()
	s.op.Unlock()

	s.mu.Lock()
	if gen != s.generation {
		// Canceled while stopping.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.fail(gen, apperrors.NewStageError(apperrors.StageCapture, apperrors.ErrMediaAccess, err))
		return err
	}
	s.media = blob
	s.transcript = s.captions.Text()
	job := s.jobLocked(gen)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"bytes": blob.Size(), "elapsed": s.timer.Seconds()}).Info("recording stopped")
	s.notify(models.StatusStopped)
	s.run(runCtx, gen, job)
	return nil
}

// Retry runs the pipeline again on the recording kept from a failed run.
// Audio already extracted from a video recording is reused.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.status != models.StatusFailed || s.media == nil {
		s.mu.Unlock()
		return apperrors.ErrNothingToRetry
	}
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx
	s.status = models.StatusStopped
	s.err = nil
	s.failedStage = ""
	job := s.jobLocked(gen)
	s.mu.Unlock()

	s.log.WithField("reuseAudio", job.Audio != nil).Info("retrying analysis")
	s.notify(models.StatusStopped)
	s.run(runCtx, gen, job)
	return nil
}

func (s *Session) jobLocked(gen uint64) Job {
	return Job{
		Mode:      s.mode,
		Media:     s.media,
		Interview: s.opts.Interview,
		Audio:     s.extracted,
		OnAudio: func(audio *models.Blob) {
			s.mu.Lock()
			if gen == s.generation {
				s.extracted = audio
			}
			s.mu.Unlock()
		},
	}
}

// Cancel aborts whatever the session is doing, releases the device and drops
// all media. It is safe to call at any time and more than once; the completion
// callback never runs for a canceled run.
func (s *Session) Cancel() {
	s.mu.Lock()
	prev := s.status
	s.generation++
	gen := s.generation
	cancel := s.cancel
	s.cancel = nil
	s.status = models.StatusCanceled
	s.media = nil
	s.extracted = nil
	s.transcript = ""
	s.result = nil
	s.err = nil
	s.failedStage = ""
	s.mu.Unlock()

	// Canceling first unblocks a Stop waiting on the recognizer.
	if cancel != nil {
		cancel()
	}

	s.op.Lock()
	s.mu.Lock()
	current := gen == s.generation
	s.mu.Unlock()
	// A Start that got in first owns the device now.
	if current {
		s.timer.Stop()
		s.timer.Reset()
		s.captions.Stop()
		s.captions.Reset()
		s.recorder.Discard()
	}
	s.op.Unlock()

	if prev != models.StatusCanceled {
		s.log.WithField("from", prev).Info("session canceled")
		s.notify(models.StatusCanceled)
	}
}

// Wait blocks until no pipeline run is in flight.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// Close cancels the session and waits for background work to finish.
func (s *Session) Close() {
	s.Cancel()
	s.Wait()
}

func (s *Session) run(ctx context.Context, gen uint64, job Job) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		result, err := s.opts.Pipeline.Run(ctx, job, func(status models.SessionStatus) {
			s.advance(gen, status)
		})
		if err != nil {
			s.fail(gen, err)
			return
		}
		s.complete(gen, result)
	}()
}

func (s *Session) advance(gen uint64, status models.SessionStatus) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()

	s.log.WithField("status", status).Debug("session advanced")
	s.notify(status)
}

func (s *Session) complete(gen uint64, result *models.ResultDisplay) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("discarding result of superseded run")
		return
	}
	s.generation++
	s.status = models.StatusComplete
	s.result = result
	s.mu.Unlock()

	s.log.WithField("score", result.Score).Info("session complete")
	s.notify(models.StatusComplete)
	if s.opts.OnComplete != nil {
		s.opts.OnComplete(result)
	}
}

func (s *Session) fail(gen uint64, err error) {
	stage, _ := apperrors.StageOf(err)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.WithError(err).Debug("discarding failure of superseded run")
		return
	}
	s.status = models.StatusFailed
	s.err = err
	s.failedStage = stage
	s.mu.Unlock()

	s.log.WithError(err).WithField("stage", stage).Error("session failed")
	s.notify(models.StatusFailed)
	if s.opts.OnFailure != nil {
		s.opts.OnFailure(stage, err)
	}
}

func (s *Session) onWarning() {
	s.log.WithField("elapsed", s.timer.Seconds()).Info("recording time almost up")
	if s.opts.OnWarning != nil {
		s.opts.OnWarning()
	}
}

func (s *Session) onTimeUp() {
	s.log.Info("recording time up")
	if err := s.Stop(); err != nil && !errors.Is(err, apperrors.ErrNotRecording) {
		s.log.WithError(err).Error("automatic stop failed")
	}
}

func (s *Session) notify(status models.SessionStatus) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(status)
	}
}
