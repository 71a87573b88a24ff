// Package mysql registers the MySQL database driver, backed by
// go-sql-driver/mysql:
//
//	import _ "github.com/ncobase/searchsync/data/mysql"
//
// parseTime=true is added to sources that do not set it so DATETIME columns
// scan into time.Time.
package mysql

import (
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
)

// Name is the driver identifier used in configuration files.
const Name = "mysql"

func newDriver() *data.SQLDriver {
	d := data.NewSQLDriver(Name, "mysql")
	d.Defaults = normalizeDSN
	return d
}

// normalizeDSN enables parseTime unless the source configures it.
func normalizeDSN(node *config.DBNode) string {
	if strings.Contains(node.Source, "parseTime=") {
		return node.Source
	}
	cfg, err := mysql.ParseDSN(node.Source)
	if err != nil {
		// Let sql.Open report the malformed source.
		return node.Source
	}
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func init() {
	data.RegisterDatabaseDriver(newDriver())
}
