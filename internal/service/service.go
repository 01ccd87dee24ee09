// Package service ties stored accounts and posts to the Graph components and
// runs the single and bulk operations exposed by the API and the CLI.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/messaging"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/nhankey2000/auto-post/internal/publisher"
	"github.com/nhankey2000/auto-post/internal/token"
)

var (
	ErrMissingPageID      = errors.New("account has no page id")
	ErrMissingAccessToken = errors.New("account has no access token")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrAlreadyPublished   = errors.New("post is already published")
	ErrNotPublished       = errors.New("post is not published")
	ErrNoGenerator        = errors.New("no content generator configured")
	ErrConnectionInvalid  = errors.New("connection check failed")
	ErrEmptyReply         = errors.New("recipient and message are required")
)

// Publisher is the subset of *publisher.Publisher the post service drives.
type Publisher interface {
	PublishImages(ctx context.Context, target publisher.Target, message string, imagePaths []string) (string, error)
	PublishVideos(ctx context.Context, target publisher.Target, message string, videos publisher.VideoPaths) ([]string, error)
	Update(ctx context.Context, target publisher.Target, postID, message string, media *publisher.MediaSet) ([]string, error)
	Delete(ctx context.Context, postID, accessToken string) error
}

// TokenChecker is implemented by *token.Validator.
type TokenChecker interface {
	Check(ctx context.Context, cred token.Credential) (token.Result, bool)
}

// Aggregator is implemented by *analytics.Aggregator.
type Aggregator interface {
	Aggregate(ctx context.Context, account analytics.Account, since, until time.Time) (*analytics.Summary, error)
}

// MessageBridge is implemented by *messaging.Bridge.
type MessageBridge interface {
	FetchMessages(ctx context.Context, pageID, accessToken string) ([]messaging.Message, error)
	Reply(ctx context.Context, recipientID, accessToken, message string) error
	PageAvatar(ctx context.Context, pageID, accessToken string) string
}

var (
	_ Publisher     = (*publisher.Publisher)(nil)
	_ TokenChecker  = (*token.Validator)(nil)
	_ Aggregator    = (*analytics.Aggregator)(nil)
	_ MessageBridge = (*messaging.Bridge)(nil)
)

// ItemError is one failed item of a bulk operation.
type ItemError struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

// BulkResult summarizes a bulk operation. A failed item never stops the rest.
type BulkResult struct {
	Succeeded int         `json:"succeeded"`
	Failures  []ItemError `json:"failures"`
}

func (r *BulkResult) record(id uint, err error) {
	if err == nil {
		r.Succeeded++
		return
	}
	r.Failures = append(r.Failures, ItemError{ID: id, Error: ErrorMessage(err)})
}

// ErrorMessage prefers the remote explanation when err carries one.
func ErrorMessage(err error) string {
	var oe *publisher.OperationError
	if errors.As(err, &oe) {
		return oe.Op.Error() + ": " + publisher.RemoteMessage(err)
	}
	return graph.Message(err)
}

func targetOf(account *models.PlatformAccount) (publisher.Target, error) {
	switch {
	case account == nil || account.PageID == "":
		return publisher.Target{}, ErrMissingPageID
	case account.AccessToken == "":
		return publisher.Target{}, ErrMissingAccessToken
	case !account.IsActive:
		return publisher.Target{}, ErrAccountInactive
	}
	return publisher.Target{PageID: account.PageID, AccessToken: account.AccessToken}, nil
}
