package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ncobase/searchsync/ctxutil"
	"github.com/ncobase/searchsync/logging/logger/config"
	"github.com/sirupsen/logrus"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return m
}

func TestEntryCarriesTraceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetVersion("v1.2.3")

	ctx := ctxutil.SetTraceID(context.Background(), "trace-42")
	l.Warnf(ctx, "index %s uses primary key %q", "posts", "uuid")

	m := decodeLine(t, &buf)
	if m["trace_id"] != "trace-42" {
		t.Errorf("trace_id = %v", m["trace_id"])
	}
	if m[VersionKey] != "v1.2.3" {
		t.Errorf("version = %v", m[VersionKey])
	}
	if m["level"] != "warning" {
		t.Errorf("level = %v", m["level"])
	}
}

func TestInitMasksSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	cleanup, err := l.Init(&config.Config{Level: int(logrus.InfoLevel), Format: "json"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer cleanup()
	l.SetOutput(&buf)

	l.EntryWithFields(context.Background(), logrus.Fields{
		"api_key": "masterKey123",
		"index":   "posts",
	}).Info("connected")

	m := decodeLine(t, &buf)
	if m["api_key"] == "masterKey123" {
		t.Error("api_key was not masked")
	}
	if m["index"] != "posts" {
		t.Errorf("index = %v", m["index"])
	}
}

func TestInitFileOutput(t *testing.T) {
	dir := t.TempDir()
	l := New(os.Stdout)
	cleanup, err := l.Init(&config.Config{Output: "file", OutputFile: filepath.Join(dir, "app.log")})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	l.Infof(context.Background(), "hello")
	cleanup()

	want := dailyLogPath(filepath.Join(dir, "app.log"), time.Now())
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read %s: %v", want, err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file content = %q", data)
	}
}

func TestDailyLogPath(t *testing.T) {
	day := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	if got := dailyLogPath("/var/log/searchsync.log", day); got != "/var/log/searchsync.2026-01-02.log" {
		t.Errorf("dailyLogPath = %q", got)
	}
}
