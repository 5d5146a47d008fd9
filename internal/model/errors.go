package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnreachable marks a fetch failure where the host itself could not be
// reached (DNS failure, connection refused). Distinguishable from generic
// failures via errors.Is.
var ErrUnreachable = errors.New("host unreachable")

// HTTPError wraps an HTTP status code so retry and rate-limit logic can
// inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error represents a transient failure worth
// retrying. Context cancellation is never retryable; HTTP 429 and 5xx are;
// other 4xx are not; non-HTTP errors (network, DNS) are.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 {
			return true
		}
		if httpErr.StatusCode >= 500 {
			return true
		}
		return false
	}

	return true
}
