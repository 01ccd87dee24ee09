package graph

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	json "github.com/json-iterator/go"
)

// Graph error code 4 is the application-level request limit. Graph reports it
// as a 400 rather than a 429.
const rateLimitErrorCode = 4

// RetryPolicy decides whether a finished attempt is retried and how long to
// wait first. It has no state, so one value can serve any number of
// concurrent requests.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RetryDecision is the outcome of RetryPolicy.Decide.
type RetryDecision struct {
	Retry  bool
	Delay  time.Duration
	Reason string
}

// DefaultRetryPolicy allows 3 retries (4 attempts) waiting 2s, 4s, 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
}

// Decide inspects the outcome of the attempt with zero-based index attempt.
// status is 0 when no response was received.
func (p RetryPolicy) Decide(attempt int, status int, body []byte, err error) RetryDecision {
	if attempt >= p.MaxRetries {
		return RetryDecision{}
	}

	reason := retryReason(status, body, err)
	if reason == "" {
		return RetryDecision{}
	}

	return RetryDecision{Retry: true, Delay: p.Backoff(attempt), Reason: reason}
}

// Backoff is the wait after the attempt with zero-based index attempt:
// BaseDelay * 2^(attempt+1).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return p.BaseDelay * time.Duration(1<<uint(attempt+1))
}

// MaxDelay is the longest delay Decide can return.
func (p RetryPolicy) MaxDelay() time.Duration {
	return p.Backoff(p.MaxRetries)
}

func retryReason(status int, body []byte, err error) string {
	if err != nil {
		if isConnectionFailure(err) {
			return "connection"
		}
		return ""
	}

	switch {
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status == http.StatusBadRequest && IsRateLimitBody(body):
		return "app_rate_limited"
	}
	return ""
}

// IsRateLimitBody reports whether a response body carries the Graph
// application request-limit error (error.code == 4).
func IsRateLimitBody(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	return json.Get(body, "error", "code").ToInt() == rateLimitErrorCode
}

// isConnectionFailure matches failures where no usable response arrived:
// refused or reset connections, DNS failures, timeouts and truncated bodies.
// Request construction errors (unreadable upload files and the like) and
// context cancellation are not retried.
func isConnectionFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
