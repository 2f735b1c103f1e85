package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing rows and activity kinds we refuse to receive.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthenticated is returned when strict local authority is required
	// but the given id is not ours.
	ErrNotAuthenticated = errors.New("authentication failed")
)

// ValidationError marks a malformed or oversized actor/object payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// VerificationError marks a failed structural or cryptographic check on an
// inbound object. It always aborts processing before any local mutation.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return "verification failed: " + e.Reason
}

// FetchError wraps a network or parse failure during remote dereference.
// Callers may retry; the resolver itself never does.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
