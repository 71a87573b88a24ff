package config

import (
	"time"

	"github.com/spf13/viper"
)

// Database database config struct. Only the master node is used; search
// sync reads and writes through the same connection.
type Database struct {
	Master *DBNode `json:"master" yaml:"master"`
}

// DBNode represents a single database node configuration
type DBNode struct {
	Driver          string        `json:"driver" yaml:"driver" validate:"omitempty,oneof=postgres mysql sqlite"`
	Source          string        `json:"source" yaml:"source"`
	MaxIdleConn     int           `json:"max_idle_conn" yaml:"max_idle_conn" validate:"gte=0"`
	MaxOpenConn     int           `json:"max_open_conn" yaml:"max_open_conn" validate:"gte=0"`
	ConnMaxLifeTime time.Duration `json:"conn_max_life_time" yaml:"conn_max_life_time"`
}

// Configured reports whether a database connection is configured.
func (d *Database) Configured() bool {
	return d != nil && d.Master != nil && d.Master.Driver != "" && d.Master.Source != ""
}

// getDatabaseConfig reads database configurations
func getDatabaseConfig(v *viper.Viper) *Database {
	return &Database{
		Master: &DBNode{
			Driver:          v.GetString("data.database.master.driver"),
			Source:          v.GetString("data.database.master.source"),
			MaxIdleConn:     v.GetInt("data.database.master.max_idle_conn"),
			MaxOpenConn:     v.GetInt("data.database.master.max_open_conn"),
			ConnMaxLifeTime: v.GetDuration("data.database.master.max_life_time"),
		},
	}
}
