package examenv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCatalog reports a catalog exam that cannot produce a generated exam.
	ErrInvalidCatalog = errors.New("invalid catalog exam")
	// ErrInvalidAttempt is wrapped by every ValidationError.
	ErrInvalidAttempt = errors.New("attempt does not match generated exam")
	// ErrExamMismatch reports a generated exam that references content missing from its catalog exam.
	ErrExamMismatch = errors.New("generated exam does not match catalog exam")
)

// ValidationError lists every structural problem found in a submitted attempt.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidAttempt.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAttempt
}

func (e *ValidationError) addf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
