package xapi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies failures reported by the API client.
type ErrorKind string

const (
	KindRateLimit   ErrorKind = "rate_limit"
	KindAuthExpired ErrorKind = "auth_expired"
	KindNetwork     ErrorKind = "network_error"
	KindNotFound    ErrorKind = "not_found"
	KindUnavailable ErrorKind = "unavailable"
	KindUnknown     ErrorKind = "unknown"
)

// Mutation outcomes that leave the server in the requested state even though
// the call failed. Callers compare with errors.Is.
var (
	ErrAlreadyApplied = errors.New("already in requested state")
	ErrTargetNotFound = errors.New("target not found")
)

// APIError is the typed error returned by every Client method.
type APIError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int

	// Detail is the raw server-provided message, when there was one.
	Detail string

	// RetryAfter and RateLimitReset are only set for KindRateLimit.
	RetryAfter     time.Duration
	RateLimitReset time.Time

	Err error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *APIError) Unwrap() error { return e.Err }

// RetryDelay reports how long the server asked us to wait. Zero means unknown.
func (e *APIError) RetryDelay(now time.Time) time.Duration {
	if e.Kind != KindRateLimit {
		return 0
	}
	if e.RetryAfter > 0 {
		return e.RetryAfter
	}
	if !e.RateLimitReset.IsZero() {
		if d := e.RateLimitReset.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// Transient reports whether retrying the same request later may succeed.
func (e *APIError) Transient() bool {
	switch e.Kind {
	case KindNetwork, KindUnavailable, KindRateLimit:
		return true
	}
	return false
}

// Describe turns an error into a short user-facing line.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case KindRateLimit:
		if d := apiErr.RetryDelay(time.Now()); d > 0 {
			return fmt.Sprintf("Rate limited, retry in %s", d.Round(time.Second))
		}
		return "Rate limited, try again later"
	case KindAuthExpired:
		return "Session expired: update auth_token and ct0 cookies"
	case KindNetwork:
		return "Network error: " + apiErr.Error()
	case KindUnavailable:
		return "Service unavailable, try again shortly"
	}
	return apiErr.Error()
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimit
	case status == 401 || status == 403:
		return KindAuthExpired
	case status == 404:
		return KindNotFound
	case status == 502 || status == 503 || status == 504:
		return KindUnavailable
	}
	return KindUnknown
}

// mutationOutcome maps the server's free text to a reconciliation sentinel.
// This is the only place that inspects error strings.
func mutationOutcome(apiErr *APIError) error {
	detail := strings.ToLower(apiErr.Detail)
	switch {
	case strings.Contains(detail, "already"):
		return ErrAlreadyApplied
	case strings.Contains(detail, "not found"), strings.Contains(detail, "no status found"):
		return ErrTargetNotFound
	case apiErr.StatusCode == 404:
		return ErrTargetNotFound
	}
	return nil
}
