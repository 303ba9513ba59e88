// Package common defines shared constants and sentinel errors used across
// the local and cloud nodes of closetsync. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Sync errors.
	ErrorUnregisteredRemoteUser = errors.New("user is not registered on the cloud node")
	ErrorTransport              = errors.New("transport error")

	// ErrorPartialFailure marks a batch where some items succeeded and some
	// did not. It is reported together with counts, never instead of them.
	ErrorPartialFailure = errors.New("partial failure")

	// Auth errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Validationf returns an ErrorValidation wrapped with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorValidation, fmt.Sprintf(format, args...))
}

// TransportError describes a failed exchange with the cloud node that
// happened below the application protocol: the request never completed
// (Err is set) or the peer answered with a non-success status.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return fmt.Sprintf("transport error: status %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrorTransport }

// IsRetryable reports whether err is worth retrying by the caller.
// Only transport-level failures qualify; application rejections such as an
// unregistered remote user will fail the same way again.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrorUnregisteredRemoteUser) {
		return false
	}
	return errors.Is(err, ErrorTransport)
}
