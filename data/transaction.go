package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/ncobase/searchsync/logging/logger"
)

type ContextKey string

const (
	ContextKeyTransaction ContextKey = "tx"
)

var (
	// ErrNoTransaction is returned by GetTx outside WithTx.
	ErrNoTransaction = errors.New("transaction not found in context")

	// ErrTxCompleted is returned when a callback is registered on a
	// transaction that already committed or rolled back.
	ErrTxCompleted = errors.New("transaction already completed")
)

// CompletionFunc runs once the owning transaction has finished. committed is
// false after a rollback or a failed commit.
type CompletionFunc func(ctx context.Context, committed bool)

// txScope is the transaction carried in the context together with the
// callbacks waiting for its outcome.
type txScope struct {
	tx *sql.Tx

	mu        sync.Mutex
	callbacks []CompletionFunc
	done      bool
}

func (s *txScope) register(fn CompletionFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrTxCompleted
	}
	s.callbacks = append(s.callbacks, fn)
	return nil
}

// complete marks the scope finished and runs the callbacks in registration
// order. A panicking callback is logged and does not stop the others.
func (s *txScope) complete(ctx context.Context, committed bool) {
	s.mu.Lock()
	s.done = true
	callbacks := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf(ctx, "transaction completion callback panicked: %v", r)
				}
			}()
			fn(ctx, committed)
		}()
	}
}

func scopeFrom(ctx context.Context) *txScope {
	s, _ := ctx.Value(ContextKeyTransaction).(*txScope)
	return s
}

// GetTx retrieves transaction from context
func GetTx(ctx context.Context) (*sql.Tx, error) {
	s := scopeFrom(ctx)
	if s == nil {
		return nil, ErrNoTransaction
	}
	return s.tx, nil
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	s := scopeFrom(ctx)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.done
}

// AfterCompletion registers fn to run when the transaction in ctx finishes.
// It returns false when ctx carries no transaction; the caller then decides
// what to do immediately.
func AfterCompletion(ctx context.Context, fn CompletionFunc) (bool, error) {
	s := scopeFrom(ctx)
	if s == nil {
		return false, nil
	}
	if err := s.register(fn); err != nil {
		return false, err
	}
	return true, nil
}

// WithTx wraps function within transaction. A nested call joins the
// outer transaction. Completion callbacks run after commit or rollback with
// a context detached from ctx's cancellation.
func (d *Data) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	d.mu.RLock()
	closed, db := d.closed, d.db
	d.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if db == nil {
		return errors.New("database connection is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	scope := &txScope{tx: tx}
	after := context.WithoutCancel(ctx)

	if err := runTx(context.WithValue(ctx, ContextKeyTransaction, scope), fn); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			scope.complete(after, false)
			return fmt.Errorf("tx err: %w, rollback err: %v", err, rbErr)
		}
		scope.complete(after, false)
		return err
	}

	if err := tx.Commit(); err != nil {
		scope.complete(after, false)
		return fmt.Errorf("commit transaction: %w", err)
	}
	scope.complete(after, true)
	return nil
}

// runTx converts a panic in fn into an error so the transaction is rolled
// back and callbacks still learn the outcome.
func runTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction panicked: %v", r)
		}
	}()
	return fn(ctx)
}
