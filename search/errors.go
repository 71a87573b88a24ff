package search

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotFound is returned by a Backend when an index does not exist.
	ErrIndexNotFound = errors.New("search: index not found")

	// ErrTaskTimeout is returned when an engine task is still running after
	// the configured wait.
	ErrTaskTimeout = errors.New("search: timed out waiting for task")

	// ErrInvalidArgument marks caller input that can never succeed.
	ErrInvalidArgument = errors.New("search: invalid argument")

	// ErrInvalidOperator is returned for unsupported filter operators.
	ErrInvalidOperator = fmt.Errorf("%w: unsupported filter operator", ErrInvalidArgument)

	// ErrMixedIndexes is returned when a batch spans more than one index.
	ErrMixedIndexes = fmt.Errorf("%w: batch records target different indexes", ErrInvalidArgument)

	// ErrEngineUnavailable wraps transport failures talking to the engine.
	ErrEngineUnavailable = errors.New("search: engine unavailable")
)

// TaskFailedError reports an engine task that reached the failed or
// canceled state.
type TaskFailedError struct {
	TaskID  int64
	Status  TaskStatus
	Code    string
	Message string
}

func (e *TaskFailedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("search: task %d %s: %s (%s)", e.TaskID, e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("search: task %d %s: %s", e.TaskID, e.Status, e.Message)
}

// IsNotFound reports whether err means the index does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrIndexNotFound) {
		return true
	}
	var tf *TaskFailedError
	return errors.As(err, &tf) && tf.Code == "index_not_found"
}
