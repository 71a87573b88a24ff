// Package meilisearch ships log entries into a Meilisearch index.
// Importing it registers the hook factory with the logger.
package meilisearch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/logging/logger/config"
	"github.com/sirupsen/logrus"
)

func init() {
	logger.RegisterHookFactory(logger.HookMeilisearch, NewHook)
}

// shipFunc writes one log document into the index uid.
type shipFunc func(uid string, doc map[string]any) error

// Hook is a logrus hook for Meilisearch
type Hook struct {
	ship        shipFunc
	indexName   string
	dateSuffix  string
	rotateDaily bool
	levels      []logrus.Level
	now         func() time.Time
}

// NewHook creates a new Meilisearch hook from config
func NewHook(cfg *config.Config) (logrus.Hook, error) {
	if cfg.Meilisearch == nil {
		return nil, fmt.Errorf("meilisearch config is nil")
	}

	client := meilisearch.New(cfg.Meilisearch.Host, meilisearch.WithAPIKey(cfg.Meilisearch.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to meilisearch: %w", err)
	}

	return &Hook{
		ship: func(uid string, doc map[string]any) error {
			pk := "id"
			_, err := client.Index(uid).AddDocuments([]map[string]any{doc}, &meilisearch.DocumentOptions{PrimaryKey: &pk})
			return err
		},
		indexName:   cfg.IndexName,
		dateSuffix:  cfg.Meilisearch.DateSuffix,
		rotateDaily: cfg.Meilisearch.RotateDaily,
		levels:      []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel},
		now:         time.Now,
	}, nil
}

// Fire sends the log entry to Meilisearch. The write is not awaited.
func (h *Hook) Fire(entry *logrus.Entry) error {
	doc := map[string]any{
		"id":        uuid.NewString(),
		"timestamp": entry.Time.UTC().Format(time.RFC3339Nano),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}
	for k, v := range entry.Data {
		if _, reserved := doc[k]; !reserved {
			doc[k] = v
		}
	}

	if err := h.ship(h.buildIndexName(), doc); err != nil {
		return fmt.Errorf("failed to index log entry: %w", err)
	}
	return nil
}

// Levels returns the log levels this hook fires for
func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

func (h *Hook) buildIndexName() string {
	if !h.rotateDaily {
		return h.indexName
	}
	return fmt.Sprintf("%s-%s", h.indexName, h.now().Format(h.dateSuffix))
}
