package dispatch

import (
	"context"
	"fmt"

	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/queue"
	"github.com/ncobase/searchsync/search"
)

// Handler runs sync jobs on a worker. Index jobs read the record again by
// key so the index reflects the store as of execution time.
type Handler struct {
	engine   search.Engine
	registry *Registry
	logger   *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(engine search.Engine, registry *Registry, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.StandardLogger()
	}
	return &Handler{engine: engine, registry: registry, logger: l}
}

// Register routes sync jobs of mux to h.
func (h *Handler) Register(mux *queue.Mux) {
	mux.Register(JobType, h)
}

// Handle decodes and runs a sync job.
func (h *Handler) Handle(ctx context.Context, job *queue.Job) error {
	sj, err := DecodeSyncJob(job)
	if err != nil {
		return err
	}
	return h.Sync(ctx, sj)
}

// Sync runs sj. Removal is by key and idempotent. An index job whose
// record is gone completes without doing anything.
func (h *Handler) Sync(ctx context.Context, sj *SyncJob) error {
	if sj.Action == ActionRemove {
		return h.engine.Remove(ctx, sj.Ref())
	}

	finder, err := h.registry.Lookup(sj.Model)
	if err != nil {
		return queue.Permanent(err)
	}
	recs, err := finder.FindByKeys(ctx, sj.KeyField, []any{sj.Key})
	if err != nil {
		return fmt.Errorf("resolve %s %v: %w", sj.Model, sj.Key, err)
	}

	want := search.KeyString(sj.Key)
	for _, rec := range recs {
		if search.KeyString(rec.SearchKey()) == want {
			return h.engine.Index(ctx, rec)
		}
	}
	h.logger.Debugf(ctx, "sync %s %v: record no longer exists, skipping", sj.Model, sj.Key)
	return nil
}

var _ queue.Handler = (*Handler)(nil)
