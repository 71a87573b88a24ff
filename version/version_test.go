package version

import (
	"encoding/json"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillFromBuildInfo(t *testing.T) {
	info := Info{Version: "0.0.0", Branch: "unknown", Revision: "unknown", BuiltAt: "unknown"}
	fill(&info, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})
	assert.Equal(t, "v1.4.0", info.Version)
	assert.Equal(t, "0123456", info.Revision)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuiltAt)
	assert.True(t, info.Modified)
}

func TestFillKeepsLinkerValues(t *testing.T) {
	info := Info{Version: "v2.0.0", Revision: "abc1234", BuiltAt: "yesterday"}
	fill(&info, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fffffffffff"}},
	})
	assert.Equal(t, "v2.0.0", info.Version)
	assert.Equal(t, "abc1234", info.Revision)
}

func TestInfoJSON(t *testing.T) {
	s, err := Info{Version: "v1", GoVersion: "go1.24"}.JSON()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	assert.Equal(t, "v1", out["version"])
	assert.Equal(t, "go1.24", out["goVersion"])
}
