package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/ecode"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]any{"hits": []any{}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, decode(t, rec), "hits")

	rec = httptest.NewRecorder()
	Success(rec)
	assert.Equal(t, "ok", decode(t, rec)["message"])
}

func TestFail(t *testing.T) {
	tests := []struct {
		name   string
		ex     *Exception
		status int
		code   float64
	}{
		{"not found", NotFound("index does not exist"), http.StatusNotFound, ecode.NothingFound},
		{"bad request", BadRequest("bad"), http.StatusBadRequest, ecode.RequestErr},
		{"nil", nil, http.StatusInternalServerError, ecode.ServerErr},
		{"from code", FromCode(ecode.InvalidIndexName), http.StatusBadRequest, ecode.InvalidIndexName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, tt.ex)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			body := decode(t, rec)
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}
