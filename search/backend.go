package search

import (
	"context"
	"time"
)

// TaskStatus is the state of an asynchronous engine task.
type TaskStatus string

const (
	TaskEnqueued   TaskStatus = "enqueued"
	TaskProcessing TaskStatus = "processing"
	TaskSucceeded  TaskStatus = "succeeded"
	TaskFailed     TaskStatus = "failed"
	TaskCanceled   TaskStatus = "canceled"

	// TaskSkipped marks an operation that needed no engine call.
	TaskSkipped TaskStatus = "skipped"
)

// Terminal reports whether the task will not change state again.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskSucceeded, TaskFailed, TaskCanceled, TaskSkipped:
		return true
	}
	return false
}

// Task is the engine's view of an asynchronous write.
type Task struct {
	UID        int64      `json:"taskUid"`
	IndexUID   string     `json:"indexUid,omitempty"`
	Type       string     `json:"type,omitempty"`
	Status     TaskStatus `json:"status"`
	ErrorCode  string     `json:"errorCode,omitempty"`
	ErrorMsg   string     `json:"error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueuedAt,omitempty"`
	FinishedAt time.Time  `json:"finishedAt,omitempty"`
}

// skippedTask is returned when an operation resolved to nothing to do.
func skippedTask() *Task {
	return &Task{Status: TaskSkipped}
}

// Skipped reports whether no engine call was issued.
func (t *Task) Skipped() bool {
	return t != nil && t.Status == TaskSkipped
}

// IndexInfo describes an index as reported by the engine.
type IndexInfo struct {
	UID        string    `json:"uid"`
	PrimaryKey string    `json:"primaryKey"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IndexStats is the document count and indexing state of an index.
type IndexStats struct {
	NumberOfDocuments int64            `json:"numberOfDocuments"`
	IsIndexing        bool             `json:"isIndexing"`
	FieldDistribution map[string]int64 `json:"fieldDistribution"`
}

// FacetStat is the numeric range of a facet.
type FacetStat struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Response is a normalized engine search response.
type Response struct {
	Hits               []Document                  `json:"hits"`
	EstimatedTotalHits int64                       `json:"estimatedTotalHits"`
	ProcessingTimeMs   int64                       `json:"processingTimeMs"`
	FacetDistribution  map[string]map[string]int64 `json:"facetDistribution"`
	FacetStats         map[string]FacetStat        `json:"facetStats"`
}

// Normalize replaces missing collections with empty ones.
func (r *Response) Normalize() *Response {
	if r.Hits == nil {
		r.Hits = []Document{}
	}
	if r.FacetDistribution == nil {
		r.FacetDistribution = map[string]map[string]int64{}
	}
	if r.FacetStats == nil {
		r.FacetStats = map[string]FacetStat{}
	}
	return r
}

// Backend is the wire contract of the external search engine. Write
// operations return the task that tracks them; implementations must map a
// missing index to ErrIndexNotFound in GetIndex.
type Backend interface {
	CreateIndex(ctx context.Context, uid, primaryKey string) (*Task, error)
	GetIndex(ctx context.Context, uid string) (*IndexInfo, error)
	ListIndexes(ctx context.Context) ([]IndexInfo, error)
	DeleteIndex(ctx context.Context, uid string) (*Task, error)

	AddDocuments(ctx context.Context, uid string, docs []Document, primaryKey string) (*Task, error)
	DeleteDocuments(ctx context.Context, uid string, ids []string) (*Task, error)
	DeleteAllDocuments(ctx context.Context, uid string) (*Task, error)

	UpdateSettings(ctx context.Context, uid string, settings Settings) (*Task, error)
	GetSettings(ctx context.Context, uid string) (Settings, error)
	GetStats(ctx context.Context, uid string) (*IndexStats, error)

	Search(ctx context.Context, uid string, params *SearchParams) (*Response, error)
	GetTask(ctx context.Context, taskUID int64) (*Task, error)
	Health(ctx context.Context) error
}
