package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ncobase/searchsync/data/config"
)

// SQLDriver is a DatabaseDriver over a registered database/sql driver.
type SQLDriver struct {
	name    string
	sqlName string

	// Defaults applies driver specific pool defaults and DSN adjustments
	// before the connection is opened.
	Defaults func(node *config.DBNode) string
	// Tune runs on the opened handle before the ping.
	Tune func(db *sql.DB, node *config.DBNode)
}

// NewSQLDriver creates a driver named name that opens connections through
// the database/sql driver sqlName.
func NewSQLDriver(name, sqlName string) *SQLDriver {
	return &SQLDriver{name: name, sqlName: sqlName}
}

// Name returns the driver identifier used in configuration files.
func (d *SQLDriver) Name() string { return d.name }

// Connect opens and pings a *sql.DB. cfg must be a *config.DBNode.
func (d *SQLDriver) Connect(ctx context.Context, cfg any) (any, error) {
	node, ok := cfg.(*config.DBNode)
	if !ok || node == nil {
		return nil, fmt.Errorf("%s: invalid configuration type, expected *config.DBNode", d.name)
	}
	if node.Source == "" {
		return nil, fmt.Errorf("%s: connection source is empty", d.name)
	}

	dsn := node.Source
	if d.Defaults != nil {
		dsn = d.Defaults(node)
	}

	db, err := sql.Open(d.sqlName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open connection: %w", d.name, err)
	}

	if node.MaxIdleConn > 0 {
		db.SetMaxIdleConns(node.MaxIdleConn)
	}
	if node.MaxOpenConn > 0 {
		db.SetMaxOpenConns(node.MaxOpenConn)
	}
	if node.ConnMaxLifeTime > 0 {
		db.SetConnMaxLifetime(node.ConnMaxLifeTime)
	}
	if d.Tune != nil {
		d.Tune(db, node)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", d.name, err)
	}
	return db, nil
}

// Close closes a *sql.DB returned by Connect.
func (d *SQLDriver) Close(conn any) error {
	db, ok := conn.(*sql.DB)
	if !ok {
		return fmt.Errorf("%s: invalid connection type, expected *sql.DB", d.name)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("%s: failed to close connection: %w", d.name, err)
	}
	return nil
}

// Ping verifies a *sql.DB returned by Connect.
func (d *SQLDriver) Ping(ctx context.Context, conn any) error {
	db, ok := conn.(*sql.DB)
	if !ok {
		return fmt.Errorf("%s: invalid connection type, expected *sql.DB", d.name)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping failed: %w", d.name, err)
	}
	return nil
}
