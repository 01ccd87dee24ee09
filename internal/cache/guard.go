package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nhankey2000/auto-post/internal/logger"
	"go.uber.org/zap"
)

// DefaultSubmissionWindow is how long an identical submission is refused
const DefaultSubmissionWindow = 10 * time.Second

const guardPrefix = "autopost:submit"

// ErrDuplicateSubmission is returned when the same target and media were
// submitted within the window.
var ErrDuplicateSubmission = errors.New("duplicate submission")

// SubmissionGuard rejects repeated publish requests for the same page and
// media set. A nil guard admits everything.
type SubmissionGuard struct {
	redis     *RedisClient
	namespace string
	window    time.Duration
}

// NewSubmissionGuard creates a guard. window <= 0 uses DefaultSubmissionWindow.
func NewSubmissionGuard(rc *RedisClient, namespace string, window time.Duration) *SubmissionGuard {
	if window <= 0 {
		window = DefaultSubmissionWindow
	}
	return &SubmissionGuard{redis: rc, namespace: namespace, window: window}
}

// Acquire claims the (target, files) pair for the window. Redis failures are
// logged and admit the submission.
func (g *SubmissionGuard) Acquire(ctx context.Context, target string, files []string) error {
	if g == nil || g.redis == nil {
		return nil
	}

	key := g.Key(target, files)
	ok, err := g.redis.SetNX(ctx, key, "1", g.window)
	if err != nil {
		logger.Log.Warn("Submission guard unavailable", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return fmt.Errorf("%w for %s", ErrDuplicateSubmission, target)
	}
	return nil
}

// Release drops the claim so a failed publish can be retried right away.
func (g *SubmissionGuard) Release(ctx context.Context, target string, files []string) {
	if g == nil || g.redis == nil {
		return
	}
	if err := g.redis.Del(ctx, g.Key(target, files)); err != nil {
		logger.Log.Warn("Failed to release submission guard", zap.Error(err))
	}
}

// Key is the Redis key for a submission. File order does not matter.
func (g *SubmissionGuard) Key(target string, files []string) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	sum := sha1.Sum([]byte(target + "|" + strings.Join(sorted, "|")))
	parts := []string{guardPrefix}
	if g.namespace != "" {
		parts = append(parts, g.namespace)
	}
	parts = append(parts, hex.EncodeToString(sum[:]))
	return strings.Join(parts, ":")
}
