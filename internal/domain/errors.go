package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput marks a precondition violation: malformed stop set, bad order,
// out-of-range index. It is fatal for the request and never retried.
var ErrInvalidInput = errors.New("invalid input")

// ProviderCategory classifies failures of an external routing source.
type ProviderCategory string

const (
	RateLimited         ProviderCategory = "rate_limited"
	CategoryUnreachable ProviderCategory = "unreachable"
	ProviderInvalidData ProviderCategory = "invalid_input"
	Timeout             ProviderCategory = "timeout"
)

// Category sentinels for errors.Is matching against a *ProviderError.
var (
	ErrRateLimited = errors.New("provider rate limited")
	ErrUnreachable = errors.New("provider unreachable")
	ErrRejected    = errors.New("provider rejected input")
	ErrTimeout     = errors.New("provider timeout")
)

// ProviderError is returned by matrix and directions adapters. It carries enough
// context for a caller to decide whether to retry, fix input, or wait.
type ProviderError struct {
	Category   ProviderCategory
	Op         string
	StatusCode int
	// Suggested wait before retrying; only meaningful for RateLimited and Unreachable.
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: provider %s", e.Op, e.Category)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(", retry after %s", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Category == RateLimited
	case ErrUnreachable:
		return e.Category == CategoryUnreachable
	case ErrRejected:
		return e.Category == ProviderInvalidData
	case ErrTimeout:
		return e.Category == Timeout
	}
	return false
}

// Retryable reports whether the caller may retry the same request later.
func (e *ProviderError) Retryable() bool {
	return e.Category != ProviderInvalidData
}

// AsProviderError unwraps err into a *ProviderError when one is present.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
