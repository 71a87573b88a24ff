package queue

import (
	"context"
	"fmt"
	"sync"
)

// Mux routes jobs to handlers by job type.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{handlers: make(map[string]Handler)}
}

// Register routes jobs of typ to h, replacing any previous handler.
func (m *Mux) Register(typ string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[typ] = h
}

// Handle dispatches job to the handler of its type.
func (m *Mux) Handle(ctx context.Context, job *Job) error {
	m.mu.RLock()
	h, ok := m.handlers[job.Type]
	m.mu.RUnlock()
	if !ok {
		return Permanent(fmt.Errorf("no handler for job type %q", job.Type))
	}
	return h.Handle(ctx, job)
}

var _ Handler = (*Mux)(nil)
