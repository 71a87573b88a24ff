package logger

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"

	"github.com/ncobase/searchsync/logging/logger/config"
	"github.com/sirupsen/logrus"
)

// Default patterns for detecting sensitive values
var defaultValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), // Email
	regexp.MustCompile(`\b[A-Za-z0-9]{32,}\b`),                               // API keys/tokens
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`),                   // Authorization header
}

const maxDepth = 10

// Desensitizer masks sensitive data in log fields
type Desensitizer struct {
	config   *config.Desensitization
	patterns []*regexp.Regexp
}

// NewDesensitizer creates a new desensitizer instance
func NewDesensitizer(cfg *config.Desensitization) *Desensitizer {
	if cfg == nil {
		cfg = config.DefaultDesensitization()
	}
	d := &Desensitizer{config: cfg}

	for _, pattern := range cfg.CustomPatterns {
		if regex, err := regexp.Compile(pattern); err == nil {
			d.patterns = append(d.patterns, regex)
		}
	}
	if cfg.EnableDefaultPatterns {
		d.patterns = append(d.patterns, defaultValuePatterns...)
	}
	return d
}

// DesensitizeFields returns a copy of fields with sensitive values masked
func (d *Desensitizer) DesensitizeFields(fields logrus.Fields) logrus.Fields {
	if !d.config.Enabled {
		return fields
	}
	result := make(logrus.Fields, len(fields))
	for key, value := range fields {
		result[key] = d.desensitizeValue(key, value, 0)
	}
	return result
}

// DesensitizeString masks pattern matches in a free-form string
func (d *Desensitizer) DesensitizeString(s string) string {
	if !d.config.Enabled || s == "" {
		return s
	}
	for _, pattern := range d.patterns {
		s = pattern.ReplaceAllString(s, d.mask())
	}
	return s
}

func (d *Desensitizer) desensitizeValue(key string, value any, depth int) any {
	if value == nil || depth > maxDepth {
		return value
	}
	if d.isSensitiveField(key) {
		return d.maskValue(value)
	}

	switch v := value.(type) {
	case string:
		return d.DesensitizeString(v)
	case error:
		return d.DesensitizeString(v.Error())
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = d.desensitizeValue(k, val, depth+1)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = d.desensitizeValue("", val, depth+1)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, val := range v {
			out[i] = d.DesensitizeString(val)
		}
		return out
	}

	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice:
		return d.processViaJSON(value, depth)
	default:
		return value
	}
}

// processViaJSON normalizes composite values into maps and slices before
// masking them.
func (d *Desensitizer) processViaJSON(value any, depth int) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return value
	}
	return d.desensitizeValue("", generic, depth+1)
}

// isSensitiveField checks if field name contains sensitive keywords
func (d *Desensitizer) isSensitiveField(fieldName string) bool {
	if fieldName == "" {
		return false
	}
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range d.config.SensitiveFields {
		s := strings.ToLower(sensitive)
		if d.config.ExactFieldMatch {
			if lowerName == s {
				return true
			}
		} else if strings.Contains(lowerName, s) {
			return true
		}
	}
	return false
}

func (d *Desensitizer) maskValue(value any) any {
	if s, ok := value.(string); ok {
		if s == "" {
			return s
		}
		if !d.config.UseFixedLength && (d.config.PreservePrefix > 0 || d.config.PreserveSuffix > 0) {
			return d.maskStringWithPreserve(s)
		}
	}
	return d.mask()
}

// maskStringWithPreserve keeps a configured prefix and suffix visible
func (d *Desensitizer) maskStringWithPreserve(str string) string {
	n := len(str)
	if n <= d.config.PreservePrefix+d.config.PreserveSuffix {
		return d.mask()
	}
	return str[:d.config.PreservePrefix] + d.mask() + str[n-d.config.PreserveSuffix:]
}

func (d *Desensitizer) mask() string {
	char, length := d.config.MaskChar, d.config.FixedMaskLength
	if char == "" {
		char = "*"
	}
	if length <= 0 {
		length = 6
	}
	return strings.Repeat(char, length)
}

// desensitizeHook masks entry data before it is formatted or shipped.
type desensitizeHook struct {
	d *Desensitizer
}

func (h *desensitizeHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *desensitizeHook) Fire(entry *logrus.Entry) error {
	entry.Data = h.d.DesensitizeFields(entry.Data)
	entry.Message = h.d.DesensitizeString(entry.Message)
	return nil
}
