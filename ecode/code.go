package ecode

import (
	"net/http"
	"sync"
)

// Business codes carried in error envelopes.
const (
	OK = 0

	Unauthorized = -101
	AccessDenied = -403

	RequestErr       = -400
	ParamErr         = -401
	NothingFound     = -404
	MethodNotAllowed = -405
	Conflict         = -409

	ServerErr          = -500
	ServiceUnavailable = -503
	Deadline           = -504

	// Search codes.
	IndexNotFound    = -1001
	InvalidIndexName = -1002
	InvalidFilter    = -1003
	EngineDown       = -1004
)

var (
	mu       sync.RWMutex
	messages = map[int]string{
		OK:                 "ok",
		Unauthorized:       "Unauthorized",
		AccessDenied:       "Access denied",
		RequestErr:         "Invalid request",
		ParamErr:           "Invalid parameters",
		NothingFound:       "Resource not found",
		MethodNotAllowed:   "Method not allowed",
		Conflict:           "Resource conflict",
		ServerErr:          "Internal server error",
		ServiceUnavailable: "Service unavailable",
		Deadline:           "Deadline exceeded",
		IndexNotFound:      "Index not found",
		InvalidIndexName:   "Invalid index name",
		InvalidFilter:      "Invalid filter",
		EngineDown:         "Search engine unavailable",
	}
	statuses = map[int]int{
		OK:                 http.StatusOK,
		Unauthorized:       http.StatusUnauthorized,
		AccessDenied:       http.StatusForbidden,
		RequestErr:         http.StatusBadRequest,
		ParamErr:           http.StatusBadRequest,
		NothingFound:       http.StatusNotFound,
		MethodNotAllowed:   http.StatusMethodNotAllowed,
		Conflict:           http.StatusConflict,
		ServerErr:          http.StatusInternalServerError,
		ServiceUnavailable: http.StatusServiceUnavailable,
		Deadline:           http.StatusGatewayTimeout,
		IndexNotFound:      http.StatusNotFound,
		InvalidIndexName:   http.StatusBadRequest,
		InvalidFilter:      http.StatusBadRequest,
		EngineDown:         http.StatusServiceUnavailable,
	}
)

// Text returns the message of code.
func Text(code int) string {
	mu.RLock()
	defer mu.RUnlock()
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[ServerErr]
}

// ToHTTPStatus maps code to an HTTP status, defaulting to 500.
func ToHTTPStatus(code int) int {
	mu.RLock()
	defer mu.RUnlock()
	if s, ok := statuses[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Register adds or replaces a code.
func Register(code, status int, message string) {
	mu.Lock()
	defer mu.Unlock()
	messages[code] = message
	statuses[code] = status
}
