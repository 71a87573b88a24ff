package config

import (
	"github.com/spf13/viper"

	dc "github.com/ncobase/searchsync/data/config"
)

// Data represents the data configuration
type Data = dc.Config

// getDataConfig returns data config
func getDataConfig(v *viper.Viper) *Data {
	return dc.GetConfig(v)
}
