package logger

import (
	"fmt"
	"sync"

	"github.com/ncobase/searchsync/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// HookType represents the type of logging hook
type HookType string

const (
	HookMeilisearch HookType = "meilisearch"
)

// HookFactory creates a logrus hook from configuration
type HookFactory func(cfg *config.Config) (logrus.Hook, error)

var (
	hookFactories = make(map[HookType]HookFactory)
	hookMu        sync.RWMutex
)

// RegisterHookFactory registers a hook factory for a given type.
// Hook packages call it from init.
func RegisterHookFactory(hookType HookType, factory HookFactory) {
	hookMu.Lock()
	defer hookMu.Unlock()
	hookFactories[hookType] = factory
}

// GetHookFactory returns the factory for a given hook type
func GetHookFactory(hookType HookType) (HookFactory, bool) {
	hookMu.RLock()
	defer hookMu.RUnlock()
	factory, ok := hookFactories[hookType]
	return factory, ok
}

// initShippingHooks adds every registered hook whose target is configured.
func (l *Logger) initShippingHooks(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	if cfg.Meilisearch != nil && cfg.Meilisearch.Host != "" {
		if factory, ok := GetHookFactory(HookMeilisearch); ok {
			hook, err := factory(cfg)
			if err != nil {
				return fmt.Errorf("failed to create meilisearch hook: %w", err)
			}
			l.AddHook(hook)
		}
	}
	return nil
}
