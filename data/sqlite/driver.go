// Package sqlite registers the SQLite database driver, backed by
// mattn/go-sqlite3 (CGO):
//
//	import _ "github.com/ncobase/searchsync/data/sqlite"
//
// Sources are file paths or URIs such as "file:app.db?cache=shared&mode=rwc"
// or ":memory:".
package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
)

// Name is the driver identifier used in configuration files.
const Name = "sqlite"

func newDriver() *data.SQLDriver {
	d := data.NewSQLDriver(Name, "sqlite3")
	d.Tune = func(db *sql.DB, node *config.DBNode) {
		// A single writer avoids SQLITE_BUSY and keeps :memory: databases
		// on one connection.
		if node.MaxOpenConn <= 0 {
			db.SetMaxOpenConns(1)
		}
		if node.MaxIdleConn <= 0 {
			db.SetMaxIdleConns(2)
		}
	}
	return d
}

func init() {
	data.RegisterDatabaseDriver(newDriver())
}
