package config

import "github.com/spf13/viper"

// Meilisearch configures shipping log entries into a Meilisearch index.
type Meilisearch struct {
	Host        string `json:"host" yaml:"host"`
	APIKey      string `json:"api_key" yaml:"api_key"`
	RotateDaily bool   `json:"rotate_daily" yaml:"rotate_daily"`
	DateSuffix  string `json:"date_suffix" yaml:"date_suffix"`
}

// getMeilisearchConfigs reads Meilisearch configurations
func getMeilisearchConfigs(v *viper.Viper) *Meilisearch {
	if !v.IsSet("logger.meilisearch") {
		return nil
	}
	suffix := v.GetString("logger.meilisearch.date_suffix")
	if suffix == "" {
		suffix = "2006.01.02"
	}
	return &Meilisearch{
		Host:        v.GetString("logger.meilisearch.host"),
		APIKey:      v.GetString("logger.meilisearch.api_key"),
		RotateDaily: v.GetBool("logger.meilisearch.rotate_daily"),
		DateSuffix:  suffix,
	}
}
