package dispatch

import (
	"fmt"
	"time"

	"github.com/ncobase/searchsync/queue"
	"github.com/ncobase/searchsync/search"
)

// JobType is the queue job type of sync jobs.
const JobType = "search.sync"

// SyncJob asks a worker to bring one document in line with the primary
// store. It carries the key only; the record is read again when the job
// runs.
type SyncJob struct {
	Action   Action    `json:"action"`
	Model    string    `json:"model"`
	Index    string    `json:"index"`
	KeyField string    `json:"key_field"`
	Key      any       `json:"key"`
	At       time.Time `json:"at"`
}

// ModelNamer names the registered model a record belongs to.
type ModelNamer interface {
	SearchModelName() string
}

// ModelOf returns the model name of rec, falling back to its index name.
func ModelOf(rec search.Searchable) string {
	if n, ok := rec.(ModelNamer); ok {
		if name := n.SearchModelName(); name != "" {
			return name
		}
	}
	return search.IndexNameOf(rec)
}

// NewSyncJob describes action on rec.
func NewSyncJob(action Action, rec search.Searchable) *SyncJob {
	return &SyncJob{
		Action:   action,
		Model:    ModelOf(rec),
		Index:    search.IndexNameOf(rec),
		KeyField: search.KeyFieldOf(rec),
		Key:      rec.SearchKey(),
		At:       time.Now().UTC(),
	}
}

// PartitionKey keeps the jobs of one record in order on partitioned queues.
func (j *SyncJob) PartitionKey() string {
	return j.Model + ":" + search.KeyString(j.Key)
}

// Ref returns a reference to the job's document.
func (j *SyncJob) Ref() search.KeyRef {
	return search.KeyRef{Index: j.Index, Key: j.Key, KeyField: j.KeyField}
}

// Envelope wraps the job for queueName.
func (j *SyncJob) Envelope(queueName string) (*queue.Job, error) {
	return queue.NewJob(queueName, JobType, j.PartitionKey(), j)
}

// DecodeSyncJob reads a SyncJob from a queue job.
func DecodeSyncJob(job *queue.Job) (*SyncJob, error) {
	if job.Type != JobType {
		return nil, queue.Permanent(fmt.Errorf("job %s has type %q, want %q", job.ID, job.Type, JobType))
	}
	var sj SyncJob
	if err := job.Bind(&sj); err != nil {
		return nil, err
	}
	if sj.Action != ActionIndex && sj.Action != ActionRemove {
		return nil, queue.Permanent(fmt.Errorf("job %s: unknown action %q", job.ID, sj.Action))
	}
	if sj.Key == nil || sj.Index == "" {
		return nil, queue.Permanent(fmt.Errorf("job %s: missing key or index", job.ID))
	}
	return &sj, nil
}
