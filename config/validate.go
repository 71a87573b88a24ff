package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ncobase/searchsync/validator"
)

// ValidationError lists every invalid field of a configuration.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if errs := validator.ValidateStruct(cfg); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
