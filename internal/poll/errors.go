package poll

import "github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"

const (
	// ErrRetryExhausted is surfaced after the retry budget for one
	// logical attempt is spent.
	ErrRetryExhausted = errors.ErrorCode("poll_retry_exhausted")

	// ErrAttemptFailed wraps a single failed fetch inside an attempt.
	ErrAttemptFailed = errors.ErrorCode("poll_attempt_failed")
)
