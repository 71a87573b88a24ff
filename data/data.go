// Package data owns the primary-store connections and the transaction scope
// that search sync dispatch hooks into.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/logging/logger"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("data layer is closed")

// Data represents the data layer implementation
type Data struct {
	mu     sync.RWMutex
	closed bool

	db       *sql.DB
	dbDriver string

	mongo   *mongo.Client
	mongoDB string

	closers []func() error
}

// Option function type for configuring Data
type Option func(*Data)

// WithDB uses an already opened database handle.
func WithDB(db *sql.DB, driver string) Option {
	return func(d *Data) {
		d.db, d.dbDriver = db, driver
	}
}

// WithMongo uses an already connected MongoDB client.
func WithMongo(client *mongo.Client, database string) Option {
	return func(d *Data) {
		d.mongo, d.mongoDB = client, database
	}
}

// New connects the configured stores through their registered drivers.
// Stores without configuration are skipped.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Data, func(), error) {
	d := &Data{}
	for _, opt := range opts {
		opt(d)
	}

	if d.db == nil && cfg != nil && cfg.Database.Configured() {
		if err := d.connectDatabase(ctx, cfg.Database.Master); err != nil {
			d.Close()
			return nil, nil, err
		}
	}

	if d.mongo == nil && cfg != nil && cfg.MongoDB.Configured() {
		if err := d.connectMongo(ctx, cfg.MongoDB); err != nil {
			d.Close()
			return nil, nil, err
		}
	}

	cleanup := func() {
		if errs := d.Close(); len(errs) > 0 {
			logger.Errorf(context.Background(), "data cleanup errors: %v", errs)
		}
	}
	return d, cleanup, nil
}

func (d *Data) connectDatabase(ctx context.Context, node *config.DBNode) error {
	drv, err := GetDatabaseDriver(node.Driver)
	if err != nil {
		return err
	}
	conn, err := drv.Connect(ctx, node)
	if err != nil {
		return err
	}
	db, ok := conn.(*sql.DB)
	if !ok {
		_ = drv.Close(conn)
		return fmt.Errorf("data: driver %s returned %T, expected *sql.DB", node.Driver, conn)
	}
	d.db, d.dbDriver = db, drv.Name()
	d.closers = append(d.closers, func() error { return drv.Close(db) })
	logger.Infof(ctx, "connected %s database", drv.Name())
	return nil
}

func (d *Data) connectMongo(ctx context.Context, cfg *config.MongoDB) error {
	drv, err := GetDatabaseDriver("mongodb")
	if err != nil {
		return err
	}
	conn, err := drv.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	client, ok := conn.(*mongo.Client)
	if !ok {
		_ = drv.Close(conn)
		return fmt.Errorf("data: mongodb driver returned %T, expected *mongo.Client", conn)
	}
	d.mongo, d.mongoDB = client, cfg.Database
	d.closers = append(d.closers, func() error { return drv.Close(client) })
	logger.Infof(ctx, "connected mongodb database %s", cfg.Database)
	return nil
}

// DB returns the database handle, or nil when none is configured.
func (d *Data) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Driver returns the name of the database driver.
func (d *Data) Driver() string {
	return d.dbDriver
}

// Mongo returns the configured MongoDB database, or nil.
func (d *Data) Mongo() *mongo.Database {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.mongo == nil {
		return nil
	}
	return d.mongo.Database(d.mongoDB)
}

// Ping checks every configured store.
func (d *Data) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	if d.db != nil {
		if err := d.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
	}
	if d.mongo != nil {
		if err := d.mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongodb ping: %w", err)
		}
	}
	return nil
}

// Close closes all data connections opened by New.
func (d *Data) Close() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
