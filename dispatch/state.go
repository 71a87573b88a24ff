// Package dispatch decides when a record mutation reaches the search
// index. Mutations inside a transaction are held until the transaction
// commits and dropped on rollback; with a queue configured they become
// background jobs that re-read the record when they run.
package dispatch

import "github.com/ncobase/searchsync/data/config"

// State is a step in the life of one dispatched mutation.
type State string

const (
	StatePending         State = "pending"
	StateDeferred        State = "deferred"
	StateImmediate       State = "immediate"
	StateQueuedDeferred  State = "queued_deferred"
	StateQueuedImmediate State = "queued_immediate"
	StateExecuted        State = "executed"
	StateDropped         State = "dropped"
)

// Event is a lifecycle event of a record.
type Event string

const (
	EventCreated  Event = "created"
	EventUpdated  Event = "updated"
	EventDeleted  Event = "deleted"
	EventRestored Event = "restored"
)

// Action is what the index does in response to an event.
type Action string

const (
	ActionIndex  Action = "index"
	ActionRemove Action = "remove"
)

// ActionFor maps an event to its index action. Index also removes records
// that are no longer searchable.
func ActionFor(ev Event) Action {
	if ev == EventDeleted {
		return ActionRemove
	}
	return ActionIndex
}

// DefaultQueueName is used when no queue name is configured.
const DefaultQueueName = "search"

// ResolveQueueName returns the configured queue name, or DefaultQueueName.
// Producers and workers both resolve the name here.
func ResolveQueueName(cfg *config.Queue) string {
	if cfg != nil && cfg.Name != "" {
		return cfg.Name
	}
	return DefaultQueueName
}
