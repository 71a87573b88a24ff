package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/logging/logger"
)

// Options carries what drivers need to open a connection.
type Options struct {
	Queue *config.Queue
	// Data holds the broker sections (redis, rabbitmq, kafka).
	Data *config.Config
	// Handler receives jobs pushed to connections that run them inline.
	Handler Handler
	Logger  *logger.Logger
}

func (o *Options) logger() *logger.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return logger.StandardLogger()
}

// Opener creates a connection.
type Opener func(ctx context.Context, opts *Options) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// Register makes a driver available under name. It panics on a duplicate
// or nil opener.
func Register(name string, o Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if o == nil {
		panic("queue: Register opener is nil")
	}
	if _, dup := openers[name]; dup {
		panic(fmt.Sprintf("queue: Register called twice for driver %s", name))
	}
	openers[name] = o
}

// Open opens a connection with the named driver.
func Open(ctx context.Context, name string, opts *Options) (Connection, error) {
	openersMu.RLock()
	o, ok := openers[name]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (forgotten import? _ \"github.com/ncobase/searchsync/queue/%s\")", ErrUnknownDriver, name, name)
	}
	if opts == nil {
		opts = &Options{}
	}
	return o(ctx, opts)
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	names := make([]string, 0, len(openers))
	for n := range openers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
