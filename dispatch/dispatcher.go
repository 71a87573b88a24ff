package dispatch

import (
	"context"

	"github.com/ncobase/searchsync/ctxutil"
	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/metrics"
	"github.com/ncobase/searchsync/queue"
	"github.com/ncobase/searchsync/search"
)

// Transition reports a state change of one dispatched mutation.
type Transition struct {
	Event  Event
	Action Action
	Model  string
	Key    any
	State  State
	Err    error
}

// Dispatcher routes record mutations to the engine or the queue.
//
//	| in transaction | queue | action                                 |
//	|----------------|-------|----------------------------------------|
//	| yes            | no    | sync after commit, drop on rollback    |
//	| no             | no    | sync now                               |
//	| yes            | yes   | enqueue after commit, drop on rollback |
//	| no             | yes   | enqueue now                            |
type Dispatcher struct {
	engine    search.Engine
	conn      queue.Connection
	queueName string
	logger    *logger.Logger
	observer  func(Transition)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueue turns on queue mode: mutations become jobs pushed to conn.
func WithQueue(conn queue.Connection, queueName string) Option {
	return func(d *Dispatcher) {
		d.conn = conn
		if queueName != "" {
			d.queueName = queueName
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver receives every state transition.
func WithObserver(fn func(Transition)) Option {
	return func(d *Dispatcher) { d.observer = fn }
}

// New creates a Dispatcher.
func New(engine search.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:    engine,
		queueName: DefaultQueueName,
		logger:    logger.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Queued reports whether queue mode is on.
func (d *Dispatcher) Queued() bool { return d.conn != nil }

// Created dispatches a create of rec.
func (d *Dispatcher) Created(ctx context.Context, rec search.Searchable) (State, error) {
	return d.Dispatch(ctx, EventCreated, rec)
}

// Updated dispatches an update of rec.
func (d *Dispatcher) Updated(ctx context.Context, rec search.Searchable) (State, error) {
	return d.Dispatch(ctx, EventUpdated, rec)
}

// Deleted dispatches a delete of rec.
func (d *Dispatcher) Deleted(ctx context.Context, rec search.Searchable) (State, error) {
	return d.Dispatch(ctx, EventDeleted, rec)
}

// Restored dispatches a restore of a soft-deleted rec.
func (d *Dispatcher) Restored(ctx context.Context, rec search.Searchable) (State, error) {
	return d.Dispatch(ctx, EventRestored, rec)
}

// Dispatch applies the decision table to ev on rec and returns the chosen
// state. Deferred work reports its outcome through the observer and logs;
// immediate work returns its error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event, rec search.Searchable) (State, error) {
	t := Transition{Event: ev, Action: ActionFor(ev), Model: ModelOf(rec), Key: rec.SearchKey()}
	d.emit(t, StatePending, nil)

	registered, err := data.AfterCompletion(ctx, func(ctx context.Context, committed bool) {
		if !committed {
			d.emit(t, StateDropped, nil)
			return
		}
		ctx, cancel := ctxutil.WithAsyncContextDefault(ctx)
		defer cancel()
		err := d.run(ctx, t.Action, rec)
		if err != nil {
			d.logger.Errorf(ctx, "deferred %s of %s %v failed: %v", t.Action, t.Model, t.Key, err)
		}
		d.emit(t, StateExecuted, err)
	})
	if err != nil {
		d.logger.Warnf(ctx, "dispatch %s of %s %v: transaction unavailable, running now: %v", t.Action, t.Model, t.Key, err)
	}

	if registered {
		state := StateDeferred
		if d.Queued() {
			state = StateQueuedDeferred
		}
		d.emit(t, state, nil)
		return state, nil
	}

	state := StateImmediate
	if d.Queued() {
		state = StateQueuedImmediate
	}
	d.emit(t, state, nil)
	err = d.run(ctx, t.Action, rec)
	d.emit(t, StateExecuted, err)
	return state, err
}

// run syncs rec now, or pushes a job for it in queue mode.
func (d *Dispatcher) run(ctx context.Context, action Action, rec search.Searchable) error {
	if d.conn != nil {
		job, err := NewSyncJob(action, rec).Envelope(d.queueName)
		if err != nil {
			return err
		}
		return d.conn.Push(ctx, job)
	}
	if action == ActionRemove {
		return d.engine.Remove(ctx, rec)
	}
	return d.engine.Index(ctx, rec)
}

func (d *Dispatcher) emit(t Transition, state State, err error) {
	t.State, t.Err = state, err
	metrics.RecordDispatch(string(state))
	if d.observer != nil {
		d.observer(t)
	}
}
