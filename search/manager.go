package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/metrics"
)

const (
	DefaultBatchSize    = 500
	DefaultTaskTimeout  = 5 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
)

// IndexManager owns the lifecycle of indexes on the engine. Every write it
// issues blocks until the engine task is terminal or the task timeout
// elapses.
type IndexManager struct {
	backend      Backend
	prefix       string
	batchSize    int
	taskTimeout  time.Duration
	pollInterval time.Duration
	defaults     Settings
	logger       *logger.Logger
}

// ManagerOption configures an IndexManager.
type ManagerOption func(*IndexManager)

// WithPrefix sets the index name prefix.
func WithPrefix(prefix string) ManagerOption {
	return func(m *IndexManager) { m.prefix = prefix }
}

// WithBatchSize sets the number of documents per write.
func WithBatchSize(n int) ManagerOption {
	return func(m *IndexManager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// WithTaskTimeout bounds how long writes wait for their engine task.
func WithTaskTimeout(d time.Duration) ManagerOption {
	return func(m *IndexManager) {
		if d > 0 {
			m.taskTimeout = d
		}
	}
}

// WithPollInterval sets how often task status is polled.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *IndexManager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithDefaultSettings sets the settings applied to every index before
// model declared settings.
func WithDefaultSettings(s Settings) ManagerOption {
	return func(m *IndexManager) { m.defaults = s }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) ManagerOption {
	return func(m *IndexManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewIndexManager creates an IndexManager on top of backend.
func NewIndexManager(backend Backend, opts ...ManagerOption) *IndexManager {
	m := &IndexManager{
		backend:      backend,
		batchSize:    DefaultBatchSize,
		taskTimeout:  DefaultTaskTimeout,
		pollInterval: DefaultPollInterval,
		logger:       logger.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backend returns the underlying engine backend.
func (m *IndexManager) Backend() Backend { return m.backend }

// BatchSize returns the maximum number of documents per write.
func (m *IndexManager) BatchSize() int { return m.batchSize }

// Prefix returns the index name prefix.
func (m *IndexManager) Prefix() string { return m.prefix }

// IndexUID returns the engine uid of a logical index name.
func (m *IndexManager) IndexUID(name string) string {
	return m.prefix + name
}

// CreateIndex creates the index with an explicit primary key and waits for
// the creation task. An empty primaryKey means PrimaryKey.
func (m *IndexManager) CreateIndex(ctx context.Context, name, primaryKey string) (*Task, error) {
	return m.createIndex(ctx, m.IndexUID(name), primaryKey)
}

func (m *IndexManager) createIndex(ctx context.Context, uid, primaryKey string) (*Task, error) {
	if primaryKey == "" {
		primaryKey = PrimaryKey
	}
	task, err := m.backend.CreateIndex(ctx, uid, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", uid, err)
	}
	m.logger.Infof(ctx, "creating search index %s with primary key %s", uid, primaryKey)
	return m.WaitForTask(ctx, task.UID)
}

// GetOrCreateIndex fetches the index, creating it on first access. It warns
// when an existing index is keyed by something other than PrimaryKey.
func (m *IndexManager) GetOrCreateIndex(ctx context.Context, name string) (*IndexHandle, error) {
	uid := m.IndexUID(name)
	info, err := m.backend.GetIndex(ctx, uid)
	if errors.Is(err, ErrIndexNotFound) {
		if _, cerr := m.createIndex(ctx, uid, PrimaryKey); cerr != nil && !isAlreadyExists(cerr) {
			return nil, cerr
		}
		info, err = m.backend.GetIndex(ctx, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("get index %s: %w", uid, err)
	}
	if info.PrimaryKey != "" && info.PrimaryKey != PrimaryKey {
		m.logger.Warnf(ctx, "search index %s uses primary key %q instead of %q", uid, info.PrimaryKey, PrimaryKey)
	}
	return &IndexHandle{
		UID:        info.UID,
		PrimaryKey: info.PrimaryKey,
		CreatedAt:  info.CreatedAt,
		UpdatedAt:  info.UpdatedAt,
		manager:    m,
	}, nil
}

func isAlreadyExists(err error) bool {
	var tf *TaskFailedError
	return errors.As(err, &tf) && tf.Code == "index_already_exists"
}

// UpdateSettings replaces the given settings on the index.
func (m *IndexManager) UpdateSettings(ctx context.Context, name string, settings Settings) (*Task, error) {
	h, err := m.GetOrCreateIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	task, err := m.backend.UpdateSettings(ctx, h.UID, settings)
	if err != nil {
		return nil, fmt.Errorf("update settings of %s: %w", h.UID, err)
	}
	return m.WaitForTask(ctx, task.UID)
}

// GetSettings returns the current engine settings of the index.
func (m *IndexManager) GetSettings(ctx context.Context, name string) (Settings, error) {
	h, err := m.GetOrCreateIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	s, err := m.backend.GetSettings(ctx, h.UID)
	if err != nil {
		return nil, fmt.Errorf("get settings of %s: %w", h.UID, err)
	}
	return s, nil
}

// DeleteIndex drops the index. Deleting a missing index succeeds.
func (m *IndexManager) DeleteIndex(ctx context.Context, name string) (*Task, error) {
	uid := m.IndexUID(name)
	task, err := m.backend.DeleteIndex(ctx, uid)
	if err == nil {
		task, err = m.WaitForTask(ctx, task.UID)
	}
	if IsNotFound(err) {
		return skippedTask(), nil
	}
	if err != nil {
		return task, fmt.Errorf("delete index %s: %w", uid, err)
	}
	return task, nil
}

// Flush deletes every document of the index.
func (m *IndexManager) Flush(ctx context.Context, name string) (*Task, error) {
	h, err := m.GetOrCreateIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	task, err := m.backend.DeleteAllDocuments(ctx, h.UID)
	if err != nil {
		return nil, fmt.Errorf("flush %s: %w", h.UID, err)
	}
	return m.WaitForTask(ctx, task.UID)
}

// GetStats returns document statistics of the index.
func (m *IndexManager) GetStats(ctx context.Context, name string) (*IndexStats, error) {
	h, err := m.GetOrCreateIndex(ctx, name)
	if err != nil {
		return nil, err
	}
	stats, err := m.backend.GetStats(ctx, h.UID)
	if err != nil {
		return nil, fmt.Errorf("get stats of %s: %w", h.UID, err)
	}
	return stats, nil
}

// GetAllIndexes lists the engine indexes carrying this manager's prefix.
func (m *IndexManager) GetAllIndexes(ctx context.Context) ([]IndexInfo, error) {
	all, err := m.backend.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	if m.prefix == "" {
		return all, nil
	}
	out := make([]IndexInfo, 0, len(all))
	for _, idx := range all {
		if strings.HasPrefix(idx.UID, m.prefix) {
			out = append(out, idx)
		}
	}
	return out, nil
}

// SettingsForModel merges the default settings with the settings rec
// declares, without contacting the engine.
func (m *IndexManager) SettingsForModel(rec Searchable) Settings {
	return Merge(m.defaults, ModelSettings(rec))
}

// SyncSettingsForModel pushes the merged settings of rec's index. When
// there is nothing to apply it returns a skipped task without an engine call.
func (m *IndexManager) SyncSettingsForModel(ctx context.Context, rec Searchable) (*Task, error) {
	settings := m.SettingsForModel(rec)
	if len(settings) == 0 {
		return skippedTask(), nil
	}
	return m.UpdateSettings(ctx, IndexNameOf(rec), settings)
}

// Search queries the index without creating it. A missing index yields
// ErrIndexNotFound.
func (m *IndexManager) Search(ctx context.Context, name string, params *SearchParams) (*Response, error) {
	uid := m.IndexUID(name)
	resp, err := m.backend.Search(ctx, uid, params)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", uid, err)
	}
	return resp.Normalize(), nil
}

// Health checks that the engine is reachable.
func (m *IndexManager) Health(ctx context.Context) error {
	return m.backend.Health(ctx)
}

// WaitForTask blocks until the task is terminal or the task timeout elapses.
func (m *IndexManager) WaitForTask(ctx context.Context, taskUID int64) (*Task, error) {
	return m.WaitForTaskTimeout(ctx, taskUID, m.taskTimeout)
}

// WaitForTaskTimeout polls the task until it is terminal. A failed or
// canceled task yields *TaskFailedError and running out of time yields
// ErrTaskTimeout.
func (m *IndexManager) WaitForTaskTimeout(ctx context.Context, taskUID int64, timeout time.Duration) (*Task, error) {
	start := time.Now()
	deadline := start.Add(timeout)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		task, err := m.backend.GetTask(ctx, taskUID)
		if err != nil {
			return nil, fmt.Errorf("get task %d: %w", taskUID, err)
		}

		switch task.Status {
		case TaskSucceeded:
			metrics.ObserveTaskWait(string(task.Status), time.Since(start))
			return task, nil
		case TaskFailed, TaskCanceled:
			metrics.ObserveTaskWait(string(task.Status), time.Since(start))
			return task, &TaskFailedError{
				TaskID:  taskUID,
				Status:  task.Status,
				Code:    task.ErrorCode,
				Message: task.ErrorMsg,
			}
		}

		if !time.Now().Before(deadline) {
			metrics.ObserveTaskWait("timeout", time.Since(start))
			return task, fmt.Errorf("%w: task %d still %s after %s", ErrTaskTimeout, taskUID, task.Status, timeout)
		}

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}
