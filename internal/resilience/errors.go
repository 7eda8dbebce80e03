package resilience

import (
	"context"
	"errors"
	"strings"
)

// TransientError wraps an error that is safe to retry on the same or a
// fresh engine instance.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient.
func NewTransientError(err error) *TransientError {
	return &TransientError{Err: err}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or matches failure patterns a recognition engine emits
// when it is merely overloaded or mid-teardown rather than misconfigured.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// Cancellation is a caller decision, never retryable.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"resource temporarily unavailable",
		"cannot allocate memory",
		"engine is closed",
		"try again",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
