// Package remote provides the shared error taxonomy and retry policy for
// calls to the order-source and ledger APIs.
package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup legitimately matches nothing
	// (missing order, unknown contact email, unknown SKU). Callers branch
	// on it to decide between create-or-fail per entity type.
	ErrNotFound = errors.New("resource not found")

	// ErrAuth is returned on 401/403 responses. Fatal, never retried.
	ErrAuth = errors.New("authentication rejected")
)

// TransientError marks a failure worth retrying: 429, 5xx, or a
// connection-level error. The retry policy backs off and re-attempts;
// on exhaustion the last TransientError is returned.
type TransientError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient failure: %v", e.Err)
	}
	return fmt.Sprintf("transient failure: status %d: %s", e.Status, e.Body)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a non-retryable 4xx response. Surfaced immediately.
type PermanentError struct {
	Status int
	Body   string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent failure: status %d: %s", e.Status, e.Body)
}

// ParseError marks a malformed upstream response that decoded into
// something the caller cannot trust.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps an HTTP status code to the error taxonomy.
// Returns nil for 2xx.
func ClassifyStatus(status int, body string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 429 || status >= 500:
		return &TransientError{Status: status, Body: body}
	case status == 401 || status == 403:
		return fmt.Errorf("%w: status %d", ErrAuth, status)
	case status == 404:
		return ErrNotFound
	default:
		return &PermanentError{Status: status, Body: body}
	}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
