package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Search engine names.
const (
	EngineMeilisearch = "meilisearch"
	EngineMemory      = "memory"
	EngineNull        = "null"
)

// Search represents search engine configuration
type Search struct {
	Engine        string         `yaml:"engine" json:"engine" validate:"oneof=meilisearch memory null"`
	Meilisearch   *Meilisearch   `yaml:"meilisearch" json:"meilisearch"`
	IndexPrefix   string         `yaml:"index_prefix" json:"index_prefix"`
	Allowlist     []string       `yaml:"allowlist" json:"allowlist"`
	BatchSize     int            `yaml:"batch_size" json:"batch_size" validate:"gte=1"`
	TaskTimeout   time.Duration  `yaml:"task_timeout" json:"task_timeout" validate:"gt=0"`
	PollInterval  time.Duration  `yaml:"poll_interval" json:"poll_interval" validate:"gt=0"`
	DefaultLimit  int            `yaml:"default_limit" json:"default_limit" validate:"gte=0"`
	Highlight     *Highlight     `yaml:"highlight" json:"highlight"`
	Breaker       *Breaker       `yaml:"breaker" json:"breaker"`
	IndexSettings map[string]any `yaml:"index_settings" json:"index_settings"`
	Models        []*Model       `yaml:"models" json:"models" validate:"dive"`
}

// Meilisearch meilisearch config struct
type Meilisearch struct {
	Host   string `json:"host" yaml:"host"`
	APIKey string `json:"api_key" yaml:"api_key"`
}

// Highlight holds the tags wrapped around highlighted matches.
type Highlight struct {
	PreTag  string `json:"pre_tag" yaml:"pre_tag"`
	PostTag string `json:"post_tag" yaml:"post_tag"`
}

// Breaker configures the circuit breaker around the engine.
type Breaker struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	MaxFailures uint32        `json:"max_failures" yaml:"max_failures"`
	OpenTimeout time.Duration `json:"open_timeout" yaml:"open_timeout"`
}

// Allowed reports whether index may be queried through public surfaces.
// An empty allowlist allows every index.
func (s *Search) Allowed(index string) bool {
	if len(s.Allowlist) == 0 {
		return true
	}
	for _, name := range s.Allowlist {
		if name == index {
			return true
		}
	}
	return false
}

// Model returns the model named name.
func (s *Search) Model(name string) (*Model, bool) {
	for _, m := range s.Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// getSearchConfig reads search configurations
func getSearchConfig(v *viper.Viper) *Search {
	ms := getMeilisearchConfigs(v)
	return &Search{
		Engine:       getSearchEngine(v, ms),
		Meilisearch:  ms,
		IndexPrefix:  getSearchIndexPrefix(v),
		Allowlist:    v.GetStringSlice("data.search.allowlist"),
		BatchSize:    getIntOrDefault(v, "data.search.batch_size", 500),
		TaskTimeout:  getDurationOrDefault(v, "data.search.task_timeout", 5*time.Second),
		PollInterval: getDurationOrDefault(v, "data.search.poll_interval", 50*time.Millisecond),
		DefaultLimit: getIntOrDefault(v, "data.search.default_limit", 20),
		Highlight: &Highlight{
			PreTag:  getStringOrDefault(v, "data.search.highlight.pre_tag", "<em>"),
			PostTag: getStringOrDefault(v, "data.search.highlight.post_tag", "</em>"),
		},
		Breaker: &Breaker{
			Enabled:     v.GetBool("data.search.breaker.enabled"),
			MaxFailures: uint32(getIntOrDefault(v, "data.search.breaker.max_failures", 5)),
			OpenTimeout: getDurationOrDefault(v, "data.search.breaker.open_timeout", 10*time.Second),
		},
		IndexSettings: v.GetStringMap("data.search.index_settings"),
		Models:        getModelConfigs(v),
	}
}

// getSearchEngine picks the configured engine, defaulting to meilisearch
// when a host is configured and to the null engine otherwise.
func getSearchEngine(v *viper.Viper, ms *Meilisearch) string {
	if v.IsSet("data.search.engine") {
		return strings.ToLower(v.GetString("data.search.engine"))
	}
	if ms.Host != "" {
		return EngineMeilisearch
	}
	return EngineNull
}

// getSearchIndexPrefix gets search index prefix
func getSearchIndexPrefix(v *viper.Viper) string {
	if v.IsSet("data.search.index_prefix") {
		return v.GetString("data.search.index_prefix")
	}
	return getDefaultIndexPrefix(v)
}

// getDefaultIndexPrefix builds default index prefix from app info
func getDefaultIndexPrefix(v *viper.Viper) string {
	appName := v.GetString("app_name")
	environment := v.GetString("environment")

	if appName != "" && environment != "" {
		return strings.ToLower(fmt.Sprintf("%s_%s_", appName, environment))
	}
	return ""
}

// getMeilisearchConfigs reads Meilisearch configurations
func getMeilisearchConfigs(v *viper.Viper) *Meilisearch {
	// Prefer `data.search.meilisearch.*` but keep backward compatibility with `data.meilisearch.*`.
	host := v.GetString("data.search.meilisearch.host")
	if host == "" {
		host = v.GetString("data.meilisearch.host")
	}

	apiKey := v.GetString("data.search.meilisearch.api_key")
	if apiKey == "" {
		apiKey = v.GetString("data.meilisearch.api_key")
	}

	return &Meilisearch{
		Host:   host,
		APIKey: apiKey,
	}
}

func getDurationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		return v.GetDuration(key)
	}
	return def
}
