package api

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks network failures and timeouts, and 5xx responses.
	// Always retried under the push retry policy.
	ErrTransport = errors.New("transport error")
	// ErrRejected marks non-auth 4xx responses. Retried under the same bounded
	// policy as transport errors.
	ErrRejected = errors.New("request rejected")
	// ErrUnauthorized marks 401 responses. Surfaced to the caller, never
	// retried inside the sync engine; credentials are owned by the caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks 404 responses. The push phase treats a 404 on delete
	// as success: the server never saw the entity.
	ErrNotFound = errors.New("remote not found")
)

// statusError tags an HTTP status with the sentinel classification the sync
// engine switches on.
func statusError(status int, body string) error {
	marker := ErrTransport
	switch {
	case status == 401:
		marker = ErrUnauthorized
	case status == 404:
		marker = ErrNotFound
	case status >= 400 && status < 500:
		marker = ErrRejected
	}
	if body != "" {
		return fmt.Errorf("%w: status %d: %s", marker, status, body)
	}
	return fmt.Errorf("%w: status %d", marker, status)
}
