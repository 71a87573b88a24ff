package dispatch_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/dispatch"
	"github.com/ncobase/searchsync/queue"
	"github.com/ncobase/searchsync/queue/memory"
	"github.com/ncobase/searchsync/search"
	"github.com/ncobase/searchsync/search/searchtest"
)

func newData(t *testing.T) *data.Data {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT)`)
	require.NoError(t, err)

	d, cleanup, err := data.New(context.Background(), nil, data.WithDB(db, "sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanup()
		db.Close()
	})
	return d
}

func newEngine(t *testing.T) (*searchtest.Backend, *search.SyncEngine) {
	t.Helper()
	backend := searchtest.New()
	mgr := search.NewIndexManager(backend, search.WithPollInterval(time.Millisecond))
	return backend, search.NewSyncEngine(mgr)
}

func post(id int, title string) *searchtest.Record {
	return searchtest.NewRecord("posts", "", map[string]any{"id": id, "title": title})
}

type recorder struct {
	mu     sync.Mutex
	states []dispatch.State
}

func (r *recorder) observe(t dispatch.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, t.State)
}

func (r *recorder) get() []dispatch.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dispatch.State(nil), r.states...)
}

func TestDirectRollbackNeverTouchesIndex(t *testing.T) {
	d := newData(t)
	backend, engine := newEngine(t)
	rec := &recorder{}
	disp := dispatch.New(engine, dispatch.WithObserver(rec.observe))
	boom := errors.New("boom")

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		state, err := disp.Created(ctx, post(1, "draft"))
		require.NoError(t, err)
		assert.Equal(t, dispatch.StateDeferred, state)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, backend.CallsTo("AddDocuments"))
	assert.Empty(t, backend.Documents("posts"))
	assert.Equal(t, []dispatch.State{dispatch.StatePending, dispatch.StateDeferred, dispatch.StateDropped}, rec.get())
}

func TestDirectCommitIndexesOnceAfterCommit(t *testing.T) {
	d := newData(t)
	backend, engine := newEngine(t)
	rec := &recorder{}
	disp := dispatch.New(engine, dispatch.WithObserver(rec.observe))

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		_, err := disp.Created(ctx, post(1, "hello"))
		require.NoError(t, err)
		assert.Empty(t, backend.CallsTo("AddDocuments"), "nothing may reach the index inside the transaction")
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, backend.CallsTo("AddDocuments"), 1)
	docs := backend.Documents("posts")
	require.Len(t, docs, 1)
	assert.Equal(t, "hello", docs[0]["title"])
	assert.Equal(t, []dispatch.State{dispatch.StatePending, dispatch.StateDeferred, dispatch.StateExecuted}, rec.get())
}

func TestDirectWithoutTransactionRunsNow(t *testing.T) {
	backend, engine := newEngine(t)
	disp := dispatch.New(engine)

	state, err := disp.Updated(context.Background(), post(2, "now"))
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateImmediate, state)
	assert.Len(t, backend.Documents("posts"), 1)

	state, err = disp.Deleted(context.Background(), post(2, "now"))
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateImmediate, state)
	assert.Empty(t, backend.Documents("posts"))
}

func TestImmediateErrorIsReturned(t *testing.T) {
	backend, engine := newEngine(t)
	backend.FailNext("GetIndex", search.ErrEngineUnavailable)
	rec := &recorder{}
	disp := dispatch.New(engine, dispatch.WithObserver(func(tr dispatch.Transition) {
		rec.observe(tr)
		if tr.State == dispatch.StateExecuted {
			assert.ErrorIs(t, tr.Err, search.ErrEngineUnavailable)
		}
	}))

	_, err := disp.Created(context.Background(), post(3, "x"))
	assert.ErrorIs(t, err, search.ErrEngineUnavailable)
	assert.Equal(t, []dispatch.State{dispatch.StatePending, dispatch.StateImmediate, dispatch.StateExecuted}, rec.get())
}

func TestLeakedTransactionContextDegradesToImmediate(t *testing.T) {
	d := newData(t)
	backend, engine := newEngine(t)
	disp := dispatch.New(engine)

	var leaked context.Context
	require.NoError(t, d.WithTx(context.Background(), func(ctx context.Context) error {
		leaked = ctx
		return nil
	}))

	state, err := disp.Created(leaked, post(4, "late"))
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateImmediate, state)
	assert.Len(t, backend.Documents("posts"), 1)
}

func TestQueuedRollbackEnqueuesNothing(t *testing.T) {
	d := newData(t)
	_, engine := newEngine(t)
	conn := memory.New(16, 1)
	t.Cleanup(func() { conn.Close() })
	disp := dispatch.New(engine, dispatch.WithQueue(conn, ""))

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		state, err := disp.Created(ctx, post(1, "draft"))
		require.NoError(t, err)
		assert.Equal(t, dispatch.StateQueuedDeferred, state)
		return errors.New("rollback")
	})

	require.Error(t, err)
	assert.Zero(t, conn.Len(dispatch.DefaultQueueName))
}

func TestQueuedCommitEnqueuesOnceAfterCommit(t *testing.T) {
	d := newData(t)
	backend, engine := newEngine(t)
	conn := memory.New(16, 1)
	t.Cleanup(func() { conn.Close() })
	disp := dispatch.New(engine, dispatch.WithQueue(conn, "search"))
	assert.True(t, disp.Queued())

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		_, err := disp.Created(ctx, post(1, "hello"))
		require.NoError(t, err)
		assert.Zero(t, conn.Len("search"), "job must not be visible before commit")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, conn.Len("search"))
	assert.Empty(t, backend.CallsTo("AddDocuments"), "queue mode leaves indexing to workers")
}

func TestQueuedRoundTrip(t *testing.T) {
	backend, engine := newEngine(t)
	conn := memory.New(16, 1)
	t.Cleanup(func() { conn.Close() })

	stored := post(7, "from store")
	reg := dispatch.NewRegistry()
	reg.Register("posts", searchtest.NewStore(stored), stored)

	mux := queue.NewMux()
	dispatch.NewHandler(engine, reg, nil).Register(mux)
	worker := queue.NewWorker(conn, mux, queue.WithRetryDelay(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx, dispatch.DefaultQueueName) }()

	disp := dispatch.New(engine, dispatch.WithQueue(conn, ""))
	state, err := disp.Updated(context.Background(), post(7, "stale payload"))
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateQueuedImmediate, state)

	require.Eventually(t, func() bool { return len(backend.Documents("posts")) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "from store", backend.Documents("posts")[0]["title"], "worker must index the stored record")

	cancel()
	require.NoError(t, <-done)
}
