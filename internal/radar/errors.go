package radar

import (
	"errors"
	"fmt"
)

// Sentinel errors. The HTTP layer maps them to status codes and messages with errors.Is.
var (
	// ErrNoQueries means the radar's plan resolved to zero queries (400).
	ErrNoQueries = errors.New("no search queries available")
	// ErrRadarNotFound means the radar id is unknown (404).
	ErrRadarNotFound = errors.New("radar not found")
	// ErrMissingSearchKey means the search provider has no API key (500).
	ErrMissingSearchKey = errors.New("search provider API key missing")
	// ErrSynthesis means the LLM call behind a sectioned report failed (500).
	ErrSynthesis = errors.New("failed to synthesize report")
	// ErrInvalidInput marks request validation failures (400).
	ErrInvalidInput = errors.New("invalid input")
	// ErrPlanParse means a plan response lacked its mermaid or xml block (500).
	ErrPlanParse = errors.New("failed to parse LLM response")
)

// ValidationError is a request validation failure whose message is shown to the caller as is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid returns a ValidationError with a formatted message.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
