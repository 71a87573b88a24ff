package ctxutil

import (
	"context"
	"time"
)

const (
	// DefaultAsyncTimeout is the default timeout for async operations
	DefaultAsyncTimeout = 30 * time.Second
)

// WithAsyncContext creates a context for work that outlives the request.
// It keeps the parent's values but not its cancellation.
func WithAsyncContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = DefaultAsyncTimeout
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}

// WithAsyncContextDefault creates an async context with default timeout
func WithAsyncContextDefault(parent context.Context) (context.Context, context.CancelFunc) {
	return WithAsyncContext(parent, DefaultAsyncTimeout)
}
