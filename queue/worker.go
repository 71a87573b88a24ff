package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/metrics"
)

// Job outcomes reported to metrics.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetried   = "retried"
	OutcomeDead      = "dead"
	OutcomeDiscarded = "discarded"
)

// Worker runs jobs with a bounded number of attempts. A job that keeps
// failing is handed to the connection's dead-letter store, if any, and
// logged at error level.
type Worker struct {
	conn        Connection
	handler     Handler
	maxAttempts int
	retryDelay  time.Duration
	logger      *logger.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithMaxAttempts sets how many times a job runs before it is dead-lettered.
func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d >= 0 {
			w.retryDelay = d
		}
	}
}

// WithWorkerLogger sets the logger.
func WithWorkerLogger(l *logger.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a Worker. conn may be nil when the worker only wraps
// handlers for inline use.
func NewWorker(conn Connection, h Handler, opts ...WorkerOption) *Worker {
	w := &Worker{
		conn:        conn,
		handler:     h,
		maxAttempts: 3,
		retryDelay:  time.Second,
		logger:      logger.StandardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle runs job until it succeeds, fails permanently or runs out of
// attempts. When ctx ends first it returns ErrInterrupted and the job is
// not dead-lettered.
func (w *Worker) Handle(ctx context.Context, job *Job) error {
	var err error
	for {
		job.Attempts++
		err = w.handler.Handle(ctx, job)
		if err == nil {
			metrics.RecordJob(job.Queue, OutcomeSucceeded)
			return nil
		}
		if IsPermanent(err) {
			metrics.RecordJob(job.Queue, OutcomeDiscarded)
			w.logger.Errorf(ctx, "job %s (%s) discarded: %v", job.ID, job.Type, err)
			return err
		}
		if ctx.Err() != nil {
			return w.interrupted(ctx, job, err)
		}
		if job.Attempts >= w.maxAttempts {
			break
		}
		metrics.RecordJob(job.Queue, OutcomeRetried)
		w.logger.Warnf(ctx, "job %s (%s) attempt %d/%d failed: %v", job.ID, job.Type, job.Attempts, w.maxAttempts, err)

		select {
		case <-ctx.Done():
			return w.interrupted(ctx, job, err)
		case <-time.After(w.retryDelay):
		}
	}

	metrics.RecordJob(job.Queue, OutcomeDead)
	w.logger.Errorf(ctx, "job %s (%s) on %s dead-lettered after %d attempts: %v", job.ID, job.Type, job.Queue, job.Attempts, err)
	if dl, ok := w.conn.(DeadLetterer); ok {
		if dlErr := dl.DeadLetter(context.WithoutCancel(ctx), job, err); dlErr != nil {
			w.logger.Errorf(ctx, "dead-letter job %s: %v", job.ID, dlErr)
		}
	}
	return fmt.Errorf("%w: %w", ErrDeadLettered, err)
}

// interrupted gives job back to its driver for redelivery. A failure caused
// by shutdown never counts against the job.
func (w *Worker) interrupted(ctx context.Context, job *Job, err error) error {
	w.logger.Warnf(ctx, "job %s (%s) interrupted after attempt %d: %v", job.ID, job.Type, job.Attempts, err)
	return fmt.Errorf("%w: %w", ErrInterrupted, err)
}

// Run consumes queueName until ctx ends.
func (w *Worker) Run(ctx context.Context, queueName string) error {
	if w.conn == nil {
		return errors.New("worker has no connection")
	}
	w.logger.Infof(ctx, "worker consuming %s on %s", queueName, w.conn.Name())
	err := w.conn.Consume(ctx, queueName, w)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

var _ Handler = (*Worker)(nil)
