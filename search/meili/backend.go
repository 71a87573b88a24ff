// Package meili implements search.Backend on Meilisearch.
package meili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/ncobase/searchsync/data/meilisearch/client"
	"github.com/ncobase/searchsync/search"
)

// Backend talks to a Meilisearch server through the client wrapper.
type Backend struct {
	client *client.Client
}

// New creates a Backend.
func New(c *client.Client) *Backend {
	return &Backend{client: c}
}

// NewFromHost creates a Backend for host.
func NewFromHost(host, apiKey string) *Backend {
	return New(client.NewMeilisearch(host, apiKey))
}

// Client returns the wrapped client.
func (b *Backend) Client() *client.Client { return b.client }

// CreateIndex enqueues creation of uid.
func (b *Backend) CreateIndex(ctx context.Context, uid, primaryKey string) (*search.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := b.client.CreateIndex(uid, primaryKey)
	if err != nil {
		return nil, mapError(err, uid)
	}
	return taskFromInfo(info), nil
}

// GetIndex returns uid, or search.ErrIndexNotFound.
func (b *Backend) GetIndex(ctx context.Context, uid string) (*search.IndexInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := b.client.GetIndex(uid)
	if err != nil {
		return nil, mapError(err, uid)
	}
	return &search.IndexInfo{
		UID:        idx.UID,
		PrimaryKey: idx.PrimaryKey,
		CreatedAt:  idx.CreatedAt,
		UpdatedAt:  idx.UpdatedAt,
	}, nil
}

// listPageSize is the number of indexes fetched per page.
const listPageSize = 100

// ListIndexes pages through every index on the server.
func (b *Backend) ListIndexes(ctx context.Context) ([]search.IndexInfo, error) {
	var out []search.IndexInfo
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := b.client.ListIndexes(&meilisearch.IndexesQuery{Limit: listPageSize, Offset: offset})
		if err != nil {
			return nil, mapError(err, "")
		}
		for _, idx := range page.Results {
			out = append(out, search.IndexInfo{
				UID:        idx.UID,
				PrimaryKey: idx.PrimaryKey,
				CreatedAt:  idx.CreatedAt,
				UpdatedAt:  idx.UpdatedAt,
			})
		}
		offset += int64(len(page.Results))
		if len(page.Results) == 0 || offset >= page.Total {
			return out, nil
		}
	}
}

// DeleteIndex enqueues deletion of uid.
func (b *Backend) DeleteIndex(ctx context.Context, uid string) (*search.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := b.client.DeleteIndex(uid)
	if err != nil {
		return nil, mapError(err, uid)
	}
	return taskFromInfo(info), nil
}

// AddDocuments enqueues an upsert of docs.
func (b *Backend) AddDocuments(ctx context.Context, uid string, docs []search.Document, primaryKey string) (*search.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload := make([]map[string]any, len(docs))
	for i, d := range docs {
		payload[i] = d
	}
	info, err := b.client.AddDocuments(uid, payload, primaryKey)
	if err != nil {
		return nil, mapError(err, uid)
	}
	return taskFromInfo(info), nil
}

// DeleteDocuments enqueues deletion of ids.
func (b *Backend) DeleteDocuments(ctx context.Context, uid string, ids []string) (*search.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := b.client.DeleteDocuments(uid, ids...)
	if err != nil {
		return nil, mapError(err, uid)
	}
	return taskFromInfo(info), nil
}

// DeleteAllDocuments enqueues removal of every document of uid.
func (b *Backend) DeleteAllDocuments(ctx context.Context, uid string) (*search.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := b.client.DeleteAllDocuments(uid)
	if err != nil {
		return nil, mapError(err, uid)
	}
	return taskFromInfo(info), nil
}

// UpdateSettings enqueues a settings update. Keys the SDK does not model
// are dropped.
func (b *Backend) UpdateSettings(ctx context.Context, uid string, settings search.Settings) (*search.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var s meilisearch.Settings
	if err := convert(settings, &s); err != nil {
		return nil, fmt.Errorf("%w: settings: %v", search.ErrInvalidArgument, err)
	}
	info, err := b.client.UpdateSettings(uid, &s)
	if err != nil {
		return nil, mapError(err, uid)
	}
	return taskFromInfo(info), nil
}

// GetSettings returns the settings of uid.
func (b *Backend) GetSettings(ctx context.Context, uid string) (search.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := b.client.GetSettings(uid)
	if err != nil {
		return nil, mapError(err, uid)
	}
	out := search.Settings{}
	if err := convert(s, &out); err != nil {
		return nil, fmt.Errorf("decode settings of %s: %w", uid, err)
	}
	return out, nil
}

// GetStats returns the statistics of uid.
func (b *Backend) GetStats(ctx context.Context, uid string) (*search.IndexStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := b.client.GetIndexStats(uid)
	if err != nil {
		return nil, mapError(err, uid)
	}
	out := &search.IndexStats{}
	if err := convert(s, out); err != nil {
		return nil, fmt.Errorf("decode stats of %s: %w", uid, err)
	}
	if out.FieldDistribution == nil {
		out.FieldDistribution = map[string]int64{}
	}
	return out, nil
}

// Search runs params against uid.
func (b *Backend) Search(ctx context.Context, uid string, params *search.SearchParams) (*search.Response, error) {
	if params == nil {
		params = &search.SearchParams{}
	}
	var req meilisearch.SearchRequest
	if err := convert(params, &req); err != nil {
		return nil, fmt.Errorf("%w: search params: %v", search.ErrInvalidArgument, err)
	}
	resp, err := b.client.Search(ctx, uid, params.Query, &req)
	if err != nil {
		return nil, mapError(err, uid)
	}
	out := &search.Response{}
	if err := convert(resp, out); err != nil {
		return nil, fmt.Errorf("decode search response of %s: %w", uid, err)
	}
	return out.Normalize(), nil
}

// taskWire is the subset of a Meilisearch task document the manager reads.
type taskWire struct {
	UID        int64     `json:"uid"`
	TaskUID    int64     `json:"taskUid"`
	IndexUID   string    `json:"indexUid"`
	Status     string    `json:"status"`
	Type       string    `json:"type"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetTask returns the current state of a task.
func (b *Backend) GetTask(ctx context.Context, taskUID int64) (*search.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := b.client.GetTask(taskUID)
	if err != nil {
		return nil, mapError(err, "")
	}
	var w taskWire
	if err := convert(t, &w); err != nil {
		return nil, fmt.Errorf("decode task %d: %w", taskUID, err)
	}
	task := &search.Task{
		UID:        taskUID,
		IndexUID:   w.IndexUID,
		Type:       w.Type,
		Status:     search.TaskStatus(w.Status),
		EnqueuedAt: w.EnqueuedAt,
		FinishedAt: w.FinishedAt,
	}
	if w.Error != nil {
		task.ErrorCode = w.Error.Code
		task.ErrorMsg = w.Error.Message
	}
	return task, nil
}

// Health checks the server.
func (b *Backend) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := b.client.Health()
	if err != nil {
		return mapError(err, "")
	}
	if h.Status != "available" {
		return fmt.Errorf("%w: status %q", search.ErrEngineUnavailable, h.Status)
	}
	return nil
}

func taskFromInfo(info *meilisearch.TaskInfo) *search.Task {
	return &search.Task{
		UID:        info.TaskUID,
		IndexUID:   info.IndexUID,
		Type:       string(info.Type),
		Status:     search.TaskStatus(string(info.Status)),
		EnqueuedAt: info.EnqueuedAt,
	}
}

// mapError classifies SDK errors into the search error taxonomy.
func mapError(err error, uid string) error {
	if errors.Is(err, client.ErrNilClient) {
		return fmt.Errorf("%w: %w", search.ErrEngineUnavailable, err)
	}
	var me *meilisearch.Error
	if errors.As(err, &me) {
		switch {
		case me.StatusCode == http.StatusNotFound && uid != "":
			return fmt.Errorf("%w: %s: %w", search.ErrIndexNotFound, uid, err)
		case me.StatusCode == 0 || me.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", search.ErrEngineUnavailable, err)
		case me.StatusCode == http.StatusUnauthorized || me.StatusCode == http.StatusForbidden:
			return err
		case me.StatusCode >= http.StatusBadRequest && me.MeilisearchApiError.Code != "index_not_found":
			// the engine's message may echo internals; only its code is kept
			return fmt.Errorf("%w: %s", search.ErrInvalidArgument, me.MeilisearchApiError.Code)
		}
	}
	if uid != "" && strings.Contains(err.Error(), "index_not_found") {
		return fmt.Errorf("%w: %s: %w", search.ErrIndexNotFound, uid, err)
	}
	return err
}

// convert copies src into dst through their JSON forms.
func convert(src, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

var _ search.Backend = (*Backend)(nil)
