package mysql

import (
	"strings"
	"testing"

	"github.com/ncobase/searchsync/data/config"
)

func TestDriverName(t *testing.T) {
	if got := newDriver().Name(); got != "mysql" {
		t.Errorf("Name() = %q, want %q", got, "mysql")
	}
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"adds parseTime", "user:pass@tcp(localhost:3306)/app", "parseTime=true"},
		{"keeps explicit value", "user:pass@tcp(localhost:3306)/app?parseTime=false", "parseTime=false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeDSN(&config.DBNode{Source: tt.source})
			if !strings.Contains(got, tt.want) {
				t.Errorf("normalizeDSN(%q) = %q, want it to contain %q", tt.source, got, tt.want)
			}
		})
	}
}
