package data_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/data"
)

func newTestData(t *testing.T) (*data.Data, *sql.DB) {
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
	return d, db
}

func countPosts(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n))
	return n
}

func TestWithTxCommitRunsCallbackAfterCommit(t *testing.T) {
	d, db := newTestData(t)

	var outcomes []bool
	var seen int
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		tx, err := data.GetTx(ctx)
		require.NoError(t, err)
		if _, err := tx.ExecContext(ctx, `INSERT INTO posts (id, title) VALUES (1, 'hello')`); err != nil {
			return err
		}
		registered, err := data.AfterCompletion(ctx, func(ctx context.Context, committed bool) {
			outcomes = append(outcomes, committed)
			seen = countPosts(t, db)
		})
		require.NoError(t, err)
		assert.True(t, registered)
		assert.Empty(t, outcomes, "callback must not run before commit")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []bool{true}, outcomes)
	assert.Equal(t, 1, seen, "callback should observe committed row")
}

func TestWithTxRollbackReportsNotCommitted(t *testing.T) {
	d, db := newTestData(t)
	boom := errors.New("boom")

	var outcomes []bool
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		tx, _ := data.GetTx(ctx)
		_, _ = tx.ExecContext(ctx, `INSERT INTO posts (id, title) VALUES (1, 'hello')`)
		_, _ = data.AfterCompletion(ctx, func(_ context.Context, committed bool) {
			outcomes = append(outcomes, committed)
		})
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []bool{false}, outcomes)
	assert.Equal(t, 0, countPosts(t, db))
}

func TestWithTxPanicRollsBack(t *testing.T) {
	d, db := newTestData(t)

	var outcomes []bool
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		tx, _ := data.GetTx(ctx)
		_, _ = tx.ExecContext(ctx, `INSERT INTO posts (id, title) VALUES (1, 'hello')`)
		_, _ = data.AfterCompletion(ctx, func(_ context.Context, committed bool) {
			outcomes = append(outcomes, committed)
		})
		panic("unexpected")
	})

	require.Error(t, err)
	assert.Equal(t, []bool{false}, outcomes)
	assert.Equal(t, 0, countPosts(t, db))
}

func TestWithTxNestedJoinsOuter(t *testing.T) {
	d, _ := newTestData(t)

	var order []string
	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		outer, _ := data.GetTx(ctx)
		return d.WithTx(ctx, func(ctx context.Context) error {
			inner, _ := data.GetTx(ctx)
			assert.Same(t, outer, inner)
			_, _ = data.AfterCompletion(ctx, func(context.Context, bool) { order = append(order, "inner") })
			order = append(order, "body")
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"body", "inner"}, order, "inner callback waits for the outer commit")
}

func TestAfterCompletionOutsideTransaction(t *testing.T) {
	registered, err := data.AfterCompletion(context.Background(), func(context.Context, bool) {
		t.Fatal("must not run")
	})
	require.NoError(t, err)
	assert.False(t, registered)
	assert.False(t, data.InTransaction(context.Background()))

	_, err = data.GetTx(context.Background())
	assert.ErrorIs(t, err, data.ErrNoTransaction)
}

func TestAfterCompletionOnFinishedTransaction(t *testing.T) {
	d, _ := newTestData(t)

	var leaked context.Context
	require.NoError(t, d.WithTx(context.Background(), func(ctx context.Context) error {
		leaked = ctx
		return nil
	}))

	assert.False(t, data.InTransaction(leaked))
	registered, err := data.AfterCompletion(leaked, func(context.Context, bool) {})
	assert.False(t, registered)
	assert.ErrorIs(t, err, data.ErrTxCompleted)
}

func TestWithTxClosed(t *testing.T) {
	d, _ := newTestData(t)
	d.Close()

	err := d.WithTx(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, data.ErrClosed)
}
