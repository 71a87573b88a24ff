package ecode

import (
	"fmt"
)

const (
	requiredMsg = "required"
	invalidMsg  = "invalid"
	failedMsg   = "failed"
	notExistMsg = "does not exist"
)

func withField(msg string, k []string) string {
	if len(k) > 0 {
		return fmt.Sprintf("%s %s", k[0], msg)
	}
	return msg
}

// FieldIsRequired returns field required message
func FieldIsRequired(k ...string) string { return withField(requiredMsg, k) }

// FieldIsInvalid returns field invalid message
func FieldIsInvalid(k ...string) string { return withField(invalidMsg, k) }

// Failed returns failed message
func Failed(k ...string) string { return withField(failedMsg, k) }

// NotExist returns not exist message
func NotExist(k ...string) string { return withField(notExistMsg, k) }
