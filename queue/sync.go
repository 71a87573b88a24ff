package queue

import (
	"context"
	"errors"

	"github.com/ncobase/searchsync/data/config"
)

// SyncConnection runs every pushed job inline on the pushing goroutine.
type SyncConnection struct {
	handler Handler
}

// NewSync creates a connection that hands jobs straight to h.
func NewSync(h Handler) *SyncConnection {
	return &SyncConnection{handler: h}
}

func (c *SyncConnection) Name() string { return config.QueueSync }

// Push runs job and returns its error.
func (c *SyncConnection) Push(ctx context.Context, job *Job) error {
	if c.handler == nil {
		return errors.New("sync queue has no handler")
	}
	return c.handler.Handle(ctx, job)
}

// Consume has nothing to deliver; it waits for ctx to end.
func (c *SyncConnection) Consume(ctx context.Context, _ string, _ Handler) error {
	<-ctx.Done()
	return nil
}

func (c *SyncConnection) Close() error { return nil }

func init() {
	Register(config.QueueSync, func(_ context.Context, opts *Options) (Connection, error) {
		return NewSync(opts.Handler), nil
	})
}
