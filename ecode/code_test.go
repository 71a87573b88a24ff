package ecode

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextAndStatus(t *testing.T) {
	tests := []struct {
		code   int
		status int
		text   string
	}{
		{IndexNotFound, http.StatusNotFound, "Index not found"},
		{InvalidIndexName, http.StatusBadRequest, "Invalid index name"},
		{Unauthorized, http.StatusUnauthorized, "Unauthorized"},
		{-99999, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, ToHTTPStatus(tt.code), tt.code)
		assert.Equal(t, tt.text, Text(tt.code), tt.code)
	}
}

func TestRegister(t *testing.T) {
	Register(-2001, http.StatusTooManyRequests, "Too busy")
	assert.Equal(t, http.StatusTooManyRequests, ToHTTPStatus(-2001))
	assert.Equal(t, "Too busy", Text(-2001))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "index invalid", FieldIsInvalid("index"))
	assert.Equal(t, "invalid", FieldIsInvalid())
	assert.Equal(t, "index does not exist", NotExist("index"))
}
