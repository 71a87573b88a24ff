package search

import (
	"context"
	"fmt"
)

// BatchIndexer splits record sets into writes of at most the manager's
// batch size. All records of one call must share an index.
type BatchIndexer struct {
	manager *IndexManager
}

// NewBatchIndexer creates a BatchIndexer.
func NewBatchIndexer(manager *IndexManager) *BatchIndexer {
	return &BatchIndexer{manager: manager}
}

// IndexMany upserts the searchable records and removes the others, flushing
// a write every batch size records and once more for the remainder.
func (b *BatchIndexer) IndexMany(ctx context.Context, records []Searchable) error {
	name, err := commonIndex(records)
	if err != nil || name == "" {
		return err
	}
	h, err := b.manager.GetOrCreateIndex(ctx, name)
	if err != nil {
		return err
	}

	size := b.manager.BatchSize()
	docs := make([]Document, 0, min(size, len(records)))
	var stale []string

	for _, rec := range records {
		if !rec.ShouldBeSearchable() {
			stale = append(stale, KeyString(rec.SearchKey()))
			if len(stale) >= size {
				if _, err := h.DeleteDocuments(ctx, stale); err != nil {
					return err
				}
				stale = nil
			}
			continue
		}
		doc, err := BuildDocument(rec)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		if len(docs) >= size {
			if _, err := h.AddDocuments(ctx, docs); err != nil {
				return err
			}
			docs = make([]Document, 0, size)
		}
	}

	if _, err := h.AddDocuments(ctx, docs); err != nil {
		return err
	}
	if _, err := h.DeleteDocuments(ctx, stale); err != nil {
		return err
	}
	return nil
}

// RemoveMany deletes the records by search key in writes of at most the
// batch size.
func (b *BatchIndexer) RemoveMany(ctx context.Context, records []Searchable) error {
	name, err := commonIndex(records)
	if err != nil || name == "" {
		return err
	}
	h, err := b.manager.GetOrCreateIndex(ctx, name)
	if err != nil {
		return err
	}

	size := b.manager.BatchSize()
	ids := make([]string, 0, min(size, len(records)))
	for _, rec := range records {
		ids = append(ids, KeyString(rec.SearchKey()))
		if len(ids) >= size {
			if _, err := h.DeleteDocuments(ctx, ids); err != nil {
				return err
			}
			ids = make([]string, 0, size)
		}
	}
	_, err = h.DeleteDocuments(ctx, ids)
	return err
}

// commonIndex returns the index shared by every record, or ErrMixedIndexes.
// It returns an empty name for an empty batch.
func commonIndex(records []Searchable) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	name := IndexNameOf(records[0])
	if name == "" {
		return "", fmt.Errorf("%w: record %v has no index name", ErrInvalidArgument, records[0].SearchKey())
	}
	for _, rec := range records[1:] {
		if other := IndexNameOf(rec); other != name {
			return "", fmt.Errorf("%w: %q and %q", ErrMixedIndexes, name, other)
		}
	}
	return name, nil
}
