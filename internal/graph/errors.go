package graph

import (
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
)

// ErrorKind categorizes transport failures
type ErrorKind string

const (
	KindConnectionFailure ErrorKind = "connection_failure"
	KindServerError       ErrorKind = "server_error"
	KindRateLimited       ErrorKind = "rate_limited"
	KindClientError       ErrorKind = "client_error"
	KindMalformed         ErrorKind = "malformed_response"
)

// Remote error codes the callers branch on.
const (
	CodeRateLimit  = rateLimitErrorCode
	CodePermission = 200
)

// RemoteError is the {"error": {...}} object Graph returns on failure, and
// occasionally alongside a 200.
type RemoteError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	TraceID   string `json:"fbtrace_id"`
	UserTitle string `json:"error_user_title"`
	UserMsg   string `json:"error_user_msg"`
}

func (e *RemoteError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s (#%d %s)", e.Message, e.Code, e.Type)
	}
	return fmt.Sprintf("%s (#%d)", e.Message, e.Code)
}

// ParseRemoteError extracts the error object from a response body, or
// returns nil when there is none.
func ParseRemoteError(body []byte) *RemoteError {
	if len(body) == 0 {
		return nil
	}
	var envelope struct {
		Error *RemoteError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return nil
	}
	return envelope.Error
}

// TransportError is returned once a request has failed for good, either
// because it was not retryable or because retries ran out.
type TransportError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Attempts   int
	Remote     *RemoteError
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("graph %s: %s", e.Endpoint, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Remote != nil {
		return msg + ": " + e.Remote.Message
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Remote != nil {
		return e.Remote
	}
	return nil
}

// Message returns the most useful human-readable description of err: the
// remote message when Graph sent one, otherwise err's own text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) && te.Remote != nil && te.Remote.Message != "" {
		return te.Remote.Message
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}

// RemoteCode returns the Graph error code carried by err, if any.
func RemoteCode(err error) (int, bool) {
	var te *TransportError
	if errors.As(err, &te) && te.Remote != nil {
		return te.Remote.Code, true
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return 0, false
}

// IsKind reports whether err is a TransportError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == kind
}

func classifyStatus(status int, body []byte) ErrorKind {
	switch {
	case status == 429, status == 400 && IsRateLimitBody(body):
		return KindRateLimited
	case status >= 500:
		return KindServerError
	default:
		return KindClientError
	}
}
