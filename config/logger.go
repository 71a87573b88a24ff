package config

import (
	"github.com/spf13/viper"

	lc "github.com/ncobase/searchsync/logging/logger/config"
)

// Logger logger config struct
type Logger = lc.Config

func getLoggerConfig(v *viper.Viper) *Logger {
	return lc.GetConfig(v)
}
