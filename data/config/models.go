package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Model sources.
const (
	SourceSQL   = "sql"
	SourceMongo = "mongo"
)

// Model declares a primary-store table or collection mirrored into an index.
type Model struct {
	Name            string         `mapstructure:"name" json:"name" yaml:"name" validate:"required"`
	Source          string         `mapstructure:"source" json:"source" yaml:"source" validate:"omitempty,oneof=sql mongo"`
	Table           string         `mapstructure:"table" json:"table" yaml:"table"`
	Index           string         `mapstructure:"index" json:"index" yaml:"index"`
	KeyField        string         `mapstructure:"key_field" json:"key_field" yaml:"key_field" validate:"required"`
	Fields          []string       `mapstructure:"fields" json:"fields" yaml:"fields"`
	Hidden          []string       `mapstructure:"hidden" json:"hidden" yaml:"hidden"`
	Filterable      []string       `mapstructure:"filterable" json:"filterable" yaml:"filterable"`
	Sortable        []string       `mapstructure:"sortable" json:"sortable" yaml:"sortable"`
	SearchableField string         `mapstructure:"searchable_field" json:"searchable_field" yaml:"searchable_field"`
	SearchableValue any            `mapstructure:"searchable_value" json:"searchable_value" yaml:"searchable_value"`
	SoftDeleteField string         `mapstructure:"soft_delete_field" json:"soft_delete_field" yaml:"soft_delete_field"`
	Settings        map[string]any `mapstructure:"settings" json:"settings" yaml:"settings"`
}

// getModelConfigs reads data.search.models, applying per-model defaults.
func getModelConfigs(v *viper.Viper) []*Model {
	var models []*Model
	if err := v.UnmarshalKey("data.search.models", &models); err != nil {
		fmt.Printf("invalid data.search.models configuration: %v\n", err)
		return nil
	}
	out := make([]*Model, 0, len(models))
	for _, m := range models {
		if m == nil {
			continue
		}
		if m.Source == "" {
			m.Source = SourceSQL
		}
		if m.Table == "" {
			m.Table = m.Name
		}
		if m.KeyField == "" {
			m.KeyField = "id"
		}
		out = append(out, m)
	}
	return out
}
