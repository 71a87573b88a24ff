// Package queue moves background jobs between the process that produces
// them and the workers that run them. A Connection is one broker binding;
// drivers register themselves by name.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownDriver = errors.New("unknown queue driver")
	ErrDeadLettered  = errors.New("job dead-lettered")
	ErrInterrupted   = errors.New("job interrupted by shutdown")
	ErrClosed        = errors.New("queue connection is closed")
)

// Job is the envelope stored on a queue.
type Job struct {
	ID    string `json:"id"`
	Queue string `json:"queue"`
	Type  string `json:"type"`
	// Key orders jobs of the same entity on brokers that partition.
	Key        string          `json:"key,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJob creates a job carrying payload encoded as JSON.
func NewJob(queueName, typ, key string, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return &Job{
		ID:         uuid.NewString(),
		Queue:      queueName,
		Type:       typ,
		Key:        key,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Encode returns the wire form of the job.
func (j *Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// Decode parses a job from its wire form.
func Decode(b []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(b, &j); err != nil {
		return nil, Permanent(fmt.Errorf("decode job: %w", err))
	}
	if j.Type == "" {
		return nil, Permanent(errors.New("decode job: missing type"))
	}
	return &j, nil
}

// Bind decodes the payload into v.
func (j *Job) Bind(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return Permanent(fmt.Errorf("bind %s payload: %w", j.Type, err))
	}
	return nil
}

// Handler runs a job.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error { return f(ctx, job) }

// Connection is a binding to one broker.
type Connection interface {
	// Name returns the driver name.
	Name() string
	// Push stores job on job.Queue.
	Push(ctx context.Context, job *Job) error
	// Consume delivers jobs of queue to h until ctx ends. A job is
	// acknowledged once h returns, whatever the result.
	Consume(ctx context.Context, queue string, h Handler) error
	Close() error
}

// DeadLetterer is implemented by connections that keep jobs which ran out
// of attempts.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, job *Job, cause error) error
}

// FailedRecord is the stored form of a dead-lettered job.
type FailedRecord struct {
	Job      *Job      `json:"job"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// NewFailedRecord builds the record of job failing with cause.
func NewFailedRecord(job *Job, cause error) FailedRecord {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return FailedRecord{Job: job, Error: msg, FailedAt: time.Now().UTC()}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked by Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
