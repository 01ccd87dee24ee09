package publisher

import (
	"errors"
	"fmt"

	"github.com/nhankey2000/auto-post/internal/graph"
)

// Validation failures. These are returned before any network call.
var (
	ErrMediaNotFound        = errors.New("media file not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMediaTooLarge        = errors.New("media file too large")
	ErrNoMediaProvided      = errors.New("no media provided")
	ErrTooManyVideos        = errors.New("too many videos")
)

// Remote failures. They always wrap the transport or remote error.
var (
	ErrPublishFailed = errors.New("publish failed")
	ErrUpdateFailed  = errors.New("update failed")
	ErrDeleteFailed  = errors.New("delete failed")
)

// MediaError names the local file that failed validation.
type MediaError struct {
	Path  string
	Size  int64
	Limit int64
	Err   error
}

func (e *MediaError) Error() string {
	if errors.Is(e.Err, ErrMediaTooLarge) {
		return fmt.Sprintf("%v: %s is %.1f MB (limit %.1f MB)", e.Err, e.Path, megabytes(e.Size), megabytes(e.Limit))
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Path)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// OperationError is a Graph-side failure of a publish, update or delete.
// errors.Is matches both the operation sentinel and the underlying cause.
type OperationError struct {
	Op     error
	Target string
	Cause  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%v for %s: %s", e.Op, e.Target, graph.Message(e.Cause))
}

func (e *OperationError) Unwrap() []error {
	return []error{e.Op, e.Cause}
}

// RemoteMessage returns the remote explanation carried by err.
func RemoteMessage(err error) string {
	var oe *OperationError
	if errors.As(err, &oe) {
		return graph.Message(oe.Cause)
	}
	return graph.Message(err)
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
