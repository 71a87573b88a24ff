package search

import (
	"context"
	"fmt"
	"time"
)

// IndexHandle is a resolved index on the engine.
type IndexHandle struct {
	UID        string
	PrimaryKey string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	manager *IndexManager
}

// Info returns the handle as an IndexInfo.
func (h *IndexHandle) Info() IndexInfo {
	return IndexInfo{UID: h.UID, PrimaryKey: h.PrimaryKey, CreatedAt: h.CreatedAt, UpdatedAt: h.UpdatedAt}
}

// FetchPrimaryKey reads the current primary key of the index from the engine.
func (h *IndexHandle) FetchPrimaryKey(ctx context.Context) (string, error) {
	info, err := h.manager.backend.GetIndex(ctx, h.UID)
	if err != nil {
		return "", fmt.Errorf("get index %s: %w", h.UID, err)
	}
	h.PrimaryKey = info.PrimaryKey
	return info.PrimaryKey, nil
}

// AddDocuments upserts docs in a single write keyed by PrimaryKey.
func (h *IndexHandle) AddDocuments(ctx context.Context, docs []Document) (*Task, error) {
	if len(docs) == 0 {
		return skippedTask(), nil
	}
	task, err := h.manager.backend.AddDocuments(ctx, h.UID, docs, PrimaryKey)
	if err != nil {
		return nil, fmt.Errorf("add %d documents to %s: %w", len(docs), h.UID, err)
	}
	return h.manager.WaitForTask(ctx, task.UID)
}

// DeleteDocuments removes the documents with the given ids in a single
// write. Missing ids are not an error.
func (h *IndexHandle) DeleteDocuments(ctx context.Context, ids []string) (*Task, error) {
	if len(ids) == 0 {
		return skippedTask(), nil
	}
	task, err := h.manager.backend.DeleteDocuments(ctx, h.UID, ids)
	if err != nil {
		return nil, fmt.Errorf("delete %d documents from %s: %w", len(ids), h.UID, err)
	}
	return h.manager.WaitForTask(ctx, task.UID)
}

// Search runs params against the index.
func (h *IndexHandle) Search(ctx context.Context, params *SearchParams) (*Response, error) {
	resp, err := h.manager.backend.Search(ctx, h.UID, params)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", h.UID, err)
	}
	return resp.Normalize(), nil
}
