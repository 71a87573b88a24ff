package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/config"
	dc "github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/ecode"
	"github.com/ncobase/searchsync/search"
	"github.com/ncobase/searchsync/search/searchtest"
	"github.com/ncobase/searchsync/security/jwt"
)

type fixture struct {
	srv     *Server
	backend *searchtest.Backend
}

func testConfig() *config.Config {
	return &config.Config{
		AppName: "test",
		RunMode: "test",
		Server:  &config.Server{MaxConcurrent: 4},
		Auth:    &config.Auth{JWT: &config.JWT{Secret: "s3cret", AdminRole: "admin"}},
		Data: &dc.Config{
			Search: &dc.Search{Allowlist: []string{"posts", "comments"}},
		},
	}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	backend := searchtest.New()
	mgr := search.NewIndexManager(backend, search.WithPollInterval(time.Millisecond))
	engine := search.NewSyncEngine(mgr)
	for i, title := range []string{"alpha", "beta", "gamma"} {
		rec := searchtest.NewRecord("posts", "", map[string]any{"id": i + 1, "title": title})
		require.NoError(t, engine.Index(context.Background(), rec))
	}
	backend.ResetCalls()

	srv, err := New(cfg, engine, mgr)
	require.NoError(t, err)
	return &fixture{srv: srv, backend: backend}
}

func (f *fixture) get(t *testing.T, target string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestSearch(t *testing.T) {
	f := newFixture(t, testConfig())

	w, body := f.get(t, `/search/posts?q=a&limit=2&offset=0&filter=status%20%3D%20published&facets=status,tag&sort=title:desc`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["hits"], 2)
	assert.EqualValues(t, 3, body["estimatedTotalHits"])
	assert.Contains(t, body, "processingTimeMs")
	assert.Contains(t, body, "facetDistribution")

	params := f.backend.LastSearch()
	require.NotNil(t, params)
	assert.Equal(t, "a", params.Query)
	assert.Equal(t, []string{"status = published"}, params.Filter)
	assert.Equal(t, []string{"status", "tag"}, params.Facets)
	assert.Equal(t, []string{"title:desc"}, params.Sort)
	assert.EqualValues(t, 2, *params.Limit)
}

func TestSearchIndexFromQuery(t *testing.T) {
	f := newFixture(t, testConfig())
	w, body := f.get(t, "/search?index=posts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["hits"], 3)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		code   int
	}{
		{"missing index name", "/search", http.StatusBadRequest, ecode.InvalidIndexName},
		{"bad index name", "/search/po$ts", http.StatusBadRequest, ecode.InvalidIndexName},
		{"not allowlisted", "/search/users", http.StatusNotFound, ecode.IndexNotFound},
		{"missing index", "/search/comments", http.StatusNotFound, ecode.IndexNotFound},
		{"bad limit", "/search/posts?limit=ten", http.StatusBadRequest, ecode.RequestErr},
		{"negative offset", "/search/posts?offset=-1", http.StatusBadRequest, ecode.RequestErr},
		{"bad sort", "/search/posts?sort=title:sideways", http.StatusBadRequest, ecode.RequestErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig())
			w, body := f.get(t, tt.target)
			assert.Equal(t, tt.status, w.Code)
			assert.EqualValues(t, tt.code, body["code"])
		})
	}
}

func TestSearchNotAllowlistedSkipsEngine(t *testing.T) {
	f := newFixture(t, testConfig())
	f.get(t, "/search/users")
	assert.Empty(t, f.backend.CallsTo("Search"))
}

func TestSearchEngineErrorIsGeneric(t *testing.T) {
	f := newFixture(t, testConfig())
	f.backend.FailNext("Search", errors.New("node meili-2 exploded at 10.0.0.7"))

	w, _ := f.get(t, "/search/posts")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.7")
}

func TestSearchRejectedByEngine(t *testing.T) {
	f := newFixture(t, testConfig())
	f.backend.FailNext("Search", fmt.Errorf("%w: invalid_search_filter", search.ErrInvalidArgument))

	w, body := f.get(t, "/search/posts?filter=status%20%3D%3D")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, ecode.RequestErr, body["code"])
	assert.Contains(t, w.Body.String(), "invalid_search_filter")
}

func TestSearchBusy(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxConcurrent = 1
	f := newFixture(t, cfg)

	require.True(t, f.srv.limiter.TryAcquire())
	w, _ := f.get(t, "/search/posts")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, f.srv.limiter.Release())
	w, _ = f.get(t, "/search/posts")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, f.srv.limiter.Available())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, testConfig())
	w, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	f.backend.FailNext("Health", search.ErrEngineUnavailable)
	w, _ = f.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, testConfig())
	f.get(t, "/search/posts")
	w, _ := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "searchsync_http_requests_total")
}

func token(t *testing.T, secret string, payload map[string]any) string {
	t.Helper()
	tok, err := jwt.NewTokenManager(secret).GenerateAccessToken("op", payload, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAdminStatus(t *testing.T) {
	f := newFixture(t, testConfig())

	w, _ := f.get(t, "/admin/search/status")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.get(t, "/admin/search/status", "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.get(t, "/admin/search/status", "Authorization", token(t, "other", map[string]any{"roles": []string{"admin"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.get(t, "/admin/search/status", "Authorization", token(t, "s3cret", map[string]any{"roles": []string{"viewer"}}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := f.get(t, "/admin/search/status", "Authorization", token(t, "s3cret", map[string]any{"roles": []string{"admin"}}))
	require.Equal(t, http.StatusOK, w.Code)
	indexes, ok := body["indexes"].([]any)
	require.True(t, ok)
	require.Len(t, indexes, 1)
	idx := indexes[0].(map[string]any)
	assert.Equal(t, "posts", idx["uid"])
	assert.Equal(t, "id", idx["primaryKey"])
	assert.Contains(t, idx, "createdAt")
	assert.Contains(t, idx, "updatedAt")
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWT.Secret = ""
	f := newFixture(t, cfg)

	w, _ := f.get(t, "/admin/search/status", "Authorization", token(t, "s3cret", map[string]any{"is_admin": true}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
