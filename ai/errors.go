package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrEmptyInput indicates the text to embed is empty after normalization.
	ErrEmptyInput = errors.New("input text is empty")

	// ErrRateLimited indicates the provider rejected the call due to rate limiting.
	ErrRateLimited = errors.New("embedding provider rate limited")

	// ErrAuthFailed indicates the provider rejected the credentials.
	// This is a configuration error and is never retried.
	ErrAuthFailed = errors.New("embedding provider authentication failed")

	// ErrUnavailable indicates a transient network or provider failure.
	ErrUnavailable = errors.New("embedding provider unavailable")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
)

// ClassifyProviderError translates a raw transport error into the provider
// error taxonomy. Raw errors never cross the package boundary; callers only
// ever see one of the sentinel kinds above, with the original error wrapped
// for context.
func ClassifyProviderError(err error) error {
	if err == nil {
		return nil
	}

	// Already classified
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrUnavailable) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "authentication"):
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

// IsRetryable reports whether the error is worth retrying with backoff.
// Rate limiting and transient unavailability are retryable; authentication
// failures and input validation errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
