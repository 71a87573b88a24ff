package config

import "github.com/spf13/viper"

// MongoDB mongodb config struct
type MongoDB struct {
	URI      string `json:"uri" yaml:"uri"`
	Database string `json:"database" yaml:"database"`
}

// Configured reports whether a MongoDB connection is configured.
func (m *MongoDB) Configured() bool {
	return m != nil && m.URI != ""
}

// getMongoDBConfigs reads MongoDB configurations. The older
// data.mongodb.master.uri key is still honoured.
func getMongoDBConfigs(v *viper.Viper) *MongoDB {
	uri := v.GetString("data.mongodb.uri")
	if uri == "" {
		uri = v.GetString("data.mongodb.master.uri")
	}
	return &MongoDB{
		URI:      uri,
		Database: v.GetString("data.mongodb.database"),
	}
}
