package strand

import (
	"context"
	"errors"
	"strings"
)

// ErrorCode is the stable failure taxonomy reported to consumers.
type ErrorCode string

const (
	CodeAuthFailed        ErrorCode = "AUTH_FAILED"
	CodeNetworkError      ErrorCode = "NETWORK_ERROR"
	CodeRateLimited       ErrorCode = "RATE_LIMITED"
	CodeTimeout           ErrorCode = "TIMEOUT"
	CodeServerError       ErrorCode = "SERVER_ERROR"
	CodeStreamInterrupted ErrorCode = "STREAM_INTERRUPTED"
)

// Classification is the result of mapping a failure onto the taxonomy.
type Classification struct {
	Code        ErrorCode
	Message     string
	Recoverable bool
	ExitCode    int
}

// Classify maps a failure to its taxonomy entry and process exit code.
// An HTTP status carried by [APIError], when present, takes precedence
// over message inspection.
func Classify(err error) Classification {
	msg := err.Error()

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return Classification{CodeAuthFailed, msg, false, 2}
		case apiErr.StatusCode == 429:
			return Classification{CodeRateLimited, msg, true, 3}
		case apiErr.StatusCode >= 500:
			return Classification{CodeServerError, msg, true, 5}
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, "rate limit", "too many requests", "429"):
		return Classification{CodeRateLimited, msg, true, 3}
	case containsAny(lower, "internal server error", "bad gateway", "service unavailable", "overloaded", "500", "502", "503"):
		return Classification{CodeServerError, msg, true, 5}
	case containsAny(lower, "connection refused", "connection reset", "no such host", "dns", "fetch failed", "broken pipe"):
		return Classification{CodeNetworkError, msg, false, 1}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		containsAny(lower, "timeout", "timed out", "deadline exceeded", "aborted"):
		return Classification{CodeTimeout, msg, true, 4}
	default:
		return Classification{CodeStreamInterrupted, msg, false, 1}
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
