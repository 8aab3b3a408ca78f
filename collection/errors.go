package collection

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedOnChild = errors.New("operation not supported on a child collection")
	ErrEditInProgress     = errors.New("edit in progress: apply or cancel before saving")
	ErrValidationFailed   = errors.New("validation failed")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrUnexpectedResult   = errors.New("unexpected dispatcher result")
)

// EditLevelMismatchError signals a cascade call that arrived with an edit
// level inconsistent with the expected nesting. It is a logic error, not a
// recoverable user error.
type EditLevelMismatchError struct {
	Op          string
	Level       int
	ParentLevel int
}

func (e *EditLevelMismatchError) Error() string {
	return fmt.Sprintf("edit level mismatch in %s: level %d, parent level %d", e.Op, e.Level, e.ParentLevel)
}

// BrokenRule describes one failing validity rule of an item.
type BrokenRule struct {
	Property string `json:"property,omitempty"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

type ValidationFailedError struct {
	Broken []BrokenRule
}

func (e *ValidationFailedError) Error() string {
	if len(e.Broken) == 0 {
		return ErrValidationFailed.Error()
	}
	messages := make([]string, 0, len(e.Broken))
	for _, b := range e.Broken {
		messages = append(messages, b.Message)
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(messages, "; ")
}

func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}
