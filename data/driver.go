package data

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver interfaces follow database/sql: driver packages register themselves
// from init() and are looked up by the name used in configuration.

// DatabaseDriver opens relational connections (*sql.DB) or document store
// clients.
type DatabaseDriver interface {
	Name() string
	Connect(ctx context.Context, cfg any) (any, error)
	Close(conn any) error
	Ping(ctx context.Context, conn any) error
}

// CacheDriver opens key-value store clients. The redis queue connection is
// obtained through it.
type CacheDriver interface {
	Name() string
	Connect(ctx context.Context, cfg any) (any, error)
	Close(conn any) error
	Ping(ctx context.Context, conn any) error
}

// SearchDriver opens search engine clients.
type SearchDriver interface {
	Name() string
	Connect(ctx context.Context, cfg any) (any, error)
	Close(conn any) error
}

// MessageDriver opens message broker connections for the queue drivers.
type MessageDriver interface {
	Name() string
	Connect(ctx context.Context, cfg any) (any, error)
	Close(conn any) error
}

type named interface{ Name() string }

// registry is a name-keyed driver table guarded for concurrent use.
type registry[T named] struct {
	kind    string
	mu      sync.RWMutex
	drivers map[string]T
}

func newRegistry[T named](kind string) *registry[T] {
	return &registry[T]{kind: kind, drivers: make(map[string]T)}
}

func (r *registry[T]) register(driver T, fn string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if any(driver) == nil {
		panic(fmt.Sprintf("data: %s driver is nil", fn))
	}
	name := driver.Name()
	if name == "" {
		panic(fmt.Sprintf("data: %s driver name is empty", fn))
	}
	if _, exists := r.drivers[name]; exists {
		panic(fmt.Sprintf("data: %s called twice for driver %s", fn, name))
	}
	r.drivers[name] = driver
}

func (r *registry[T]) get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	driver, ok := r.drivers[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf(
			"data: %s driver %q not registered\n\n"+
				"Did you forget to import the driver package?\n"+
				"Add to your imports:\n"+
				"    _ \"github.com/ncobase/searchsync/data/%s\"\n\n"+
				"Available drivers: %v",
			r.kind, name, name, r.namesLocked(),
		)
	}
	return driver, nil
}

func (r *registry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *registry[T]) namesLocked() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *registry[T]) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = make(map[string]T)
}

var (
	databaseDrivers = newRegistry[DatabaseDriver]("database")
	cacheDrivers    = newRegistry[CacheDriver]("cache")
	searchDrivers   = newRegistry[SearchDriver]("search")
	messageDrivers  = newRegistry[MessageDriver]("message")
)

// RegisterDatabaseDriver makes a database driver available by its name.
// It panics if driver is nil, unnamed, or registered twice.
//
//	func init() {
//	    data.RegisterDatabaseDriver(&driver{})
//	}
func RegisterDatabaseDriver(driver DatabaseDriver) {
	databaseDrivers.register(driver, "RegisterDatabaseDriver")
}

// RegisterCacheDriver makes a cache driver available by its name.
func RegisterCacheDriver(driver CacheDriver) {
	cacheDrivers.register(driver, "RegisterCacheDriver")
}

// RegisterSearchDriver makes a search engine driver available by its name.
func RegisterSearchDriver(driver SearchDriver) {
	searchDrivers.register(driver, "RegisterSearchDriver")
}

// RegisterMessageDriver makes a message broker driver available by its name.
func RegisterMessageDriver(driver MessageDriver) {
	messageDrivers.register(driver, "RegisterMessageDriver")
}

// GetDatabaseDriver retrieves a registered database driver by name.
func GetDatabaseDriver(name string) (DatabaseDriver, error) {
	return databaseDrivers.get(name)
}

// GetCacheDriver retrieves a registered cache driver by name.
func GetCacheDriver(name string) (CacheDriver, error) {
	return cacheDrivers.get(name)
}

// GetSearchDriver retrieves a registered search engine driver by name.
func GetSearchDriver(name string) (SearchDriver, error) {
	return searchDrivers.get(name)
}

// GetMessageDriver retrieves a registered message broker driver by name.
func GetMessageDriver(name string) (MessageDriver, error) {
	return messageDrivers.get(name)
}

// ListRegisteredDrivers returns the sorted driver names per kind.
func ListRegisteredDrivers() map[string][]string {
	return map[string][]string{
		"database": databaseDrivers.names(),
		"cache":    cacheDrivers.names(),
		"search":   searchDrivers.names(),
		"message":  messageDrivers.names(),
	}
}
