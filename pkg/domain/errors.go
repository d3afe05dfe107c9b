package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidDimension is returned when a canvas is declared with a negative width or height.
var ErrInvalidDimension = errors.New("invalid canvas dimension")

// ErrMalformedCommand is returned when a command string cannot be parsed.
var ErrMalformedCommand = errors.New("malformed command")

// ErrOutOfBounds is returned when a move or mark targets a cell outside the grid.
var ErrOutOfBounds = errors.New("position out of bounds")

// ErrStepLimit is returned when a run exceeds its step budget.
var ErrStepLimit = errors.New("step limit exceeded")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// CommandError ties a failure to the command text that caused it.
type CommandError struct {
	Command string // Raw command text, as extracted from the program
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err into one of the interpreter's error kinds.
// It returns "unknown" for anything else.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedCommand):
		return "malformed_command"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrInvalidDimension):
		return "invalid_dimension"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrStepLimit):
		return "step_limit"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}
