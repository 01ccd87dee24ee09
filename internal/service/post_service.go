package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nhankey2000/auto-post/internal/cache"
	"github.com/nhankey2000/auto-post/internal/content"
	"github.com/nhankey2000/auto-post/internal/metrics"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/nhankey2000/auto-post/internal/publisher"
	"github.com/nhankey2000/auto-post/internal/repository"
	"github.com/nhankey2000/auto-post/internal/telemetry"
	"github.com/nhankey2000/auto-post/internal/util"
	"go.uber.org/zap"
)

// PostService publishes stored posts and keeps their remote handles
type PostService struct {
	posts     repository.PostRepository
	accounts  repository.AccountRepository
	publisher Publisher
	guard     *cache.SubmissionGuard
	generator content.Generator
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// PostServiceOption customizes a PostService
type PostServiceOption func(*PostService)

// WithGuard enables the duplicate-submission guard
func WithGuard(g *cache.SubmissionGuard) PostServiceOption {
	return func(s *PostService) { s.guard = g }
}

// WithGenerator enables CreateFromPrompt
func WithGenerator(g content.Generator) PostServiceOption {
	return func(s *PostService) { s.generator = g }
}

// WithPostMetrics counts guard rejections
func WithPostMetrics(m *metrics.Metrics) PostServiceOption {
	return func(s *PostService) { s.metrics = m }
}

// NewPostService creates a PostService. log may be nil.
func NewPostService(posts repository.PostRepository, accounts repository.AccountRepository, pub Publisher, log *zap.Logger, opts ...PostServiceOption) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &PostService{posts: posts, accounts: accounts, publisher: pub, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a draft post for an existing account.
func (s *PostService) Create(ctx context.Context, post *models.Post) error {
	if _, err := s.accounts.Get(ctx, post.PlatformAccountID); err != nil {
		return err
	}
	post.Hashtags = util.NormalizeHashtags(post.Hashtags)
	post.Status = models.PostStatusDraft
	return s.posts.Create(ctx, post)
}

// CreateFromPrompt asks the generator for a draft and stores it.
func (s *PostService) CreateFromPrompt(ctx context.Context, accountID uint, prompt content.Prompt) (*models.Post, error) {
	if s.generator == nil {
		return nil, ErrNoGenerator
	}
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}

	draft, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	post := &models.Post{
		PlatformAccountID: accountID,
		Title:             draft.Title,
		Content:           draft.Content,
		Hashtags:          util.NormalizeHashtags(draft.Hashtags),
		Status:            models.PostStatusDraft,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns one post with its account
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.Get(ctx, id)
}

// List returns posts matching the filter
func (s *PostService) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	return s.posts.List(ctx, filter)
}

// Publish sends a stored post to its page now. A post that is already
// published is rejected; a failed attempt marks the post failed and keeps
// any handles that went live, which a retry deletes before publishing again.
func (s *PostService) Publish(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPublished {
		return nil, ErrAlreadyPublished
	}
	target, err := targetOf(post.PlatformAccount)
	if err != nil {
		return nil, err
	}

	media, err := publisher.PrepareMedia(post.Media)
	if err != nil {
		return nil, err
	}

	if leftover := post.RemoteIDs(); len(leftover) > 0 {
		if err := s.deleteRemote(ctx, post, target, leftover); err != nil {
			return nil, err
		}
	}

	if err := s.guard.Acquire(ctx, target.PageID, media.Paths); err != nil {
		if s.metrics != nil {
			s.metrics.DuplicateSubmissions.Inc()
		}
		return nil, err
	}

	message := content.Compose(post.Title, post.Content, post.Hashtags)
	spanCtx, span := telemetry.StartPublish(ctx, id, target.PageID, string(media.Kind), len(media.Paths))
	handles, err := s.send(spanCtx, target, message, media)
	telemetry.End(span, err)
	if err != nil {
		s.guard.Release(ctx, target.PageID, media.Paths)
		if len(handles) > 0 {
			s.log.Warn("Publish failed after partial upload",
				zap.Uint("post_id", id),
				zap.Strings("live_remote_ids", handles),
			)
		}
		if markErr := s.posts.MarkFailed(ctx, id, ErrorMessage(err), handles); markErr != nil {
			s.log.Error("Failed to record publish failure", zap.Uint("post_id", id), zap.Error(markErr))
		}
		return nil, err
	}

	if err := s.posts.MarkPublished(ctx, id, handles, s.now().UTC()); err != nil {
		return nil, err
	}
	s.log.Info("Published post",
		zap.Uint("post_id", id),
		zap.String("page_id", target.PageID),
		zap.Strings("remote_ids", handles),
	)
	return s.posts.Get(ctx, id)
}

func (s *PostService) send(ctx context.Context, target publisher.Target, message string, media publisher.MediaSet) ([]string, error) {
	if media.Kind == publisher.KindVideo {
		return s.publisher.PublishVideos(ctx, target, message, publisher.VideoList(media.Paths...))
	}
	handle, err := s.publisher.PublishImages(ctx, target, message, media.Paths)
	if err != nil {
		return nil, err
	}
	return []string{handle}, nil
}

// UpdateInput carries the fields to change. Nil fields are left as they are.
type UpdateInput struct {
	Title    *string
	Content  *string
	Hashtags *[]string
	Media    *[]string
}

// Update changes a post locally and, when it is live, on the page. A text
// change edits the live post in place; a media change deletes and
// republishes it, replacing the stored handles. If the republish fails
// after the old post was deleted, the edits are kept and the post is marked
// failed with any handles that went live.
func (s *PostService) Update(ctx context.Context, id uint, in UpdateInput) (*models.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Hashtags != nil {
		post.Hashtags = util.NormalizeHashtags(*in.Hashtags)
	}
	if in.Media != nil {
		post.Media = *in.Media
	}

	if post.Status == models.PostStatusPublished {
		handles, err := s.updateRemote(ctx, post, in.Media != nil)
		if err != nil {
			return nil, err
		}
		post.SetRemoteIDs(handles)
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) updateRemote(ctx context.Context, post *models.Post, mediaChanged bool) (handles []string, err error) {
	target, err := targetOf(post.PlatformAccount)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartUpdate(ctx, post.ID, target.PageID, mediaChanged)
	defer func() { telemetry.End(span, err) }()

	message := content.Compose(post.Title, post.Content, post.Hashtags)
	ids := post.RemoteIDs()
	if len(ids) == 0 {
		return nil, ErrNotPublished
	}

	if !mediaChanged {
		for _, remoteID := range ids {
			if _, err := s.publisher.Update(ctx, target, remoteID, message, nil); err != nil {
				return nil, err
			}
		}
		return ids, nil
	}

	media, err := publisher.PrepareMedia(post.Media)
	if err != nil {
		return nil, err
	}
	// The primary handle is replaced by Update; extra video handles go first.
	if err := s.deleteRemote(ctx, post, target, ids[1:]); err != nil {
		return nil, err
	}
	handles, err = s.publisher.Update(ctx, target, ids[0], message, &media)
	if err != nil {
		if errors.Is(err, publisher.ErrPublishFailed) {
			// The old post is gone. Keep the edits and whatever went live.
			post.Status = models.PostStatusFailed
			post.LastError = ErrorMessage(err)
			post.PublishedAt = nil
			post.SetRemoteIDs(handles)
			if saveErr := s.posts.Update(ctx, post); saveErr != nil {
				s.log.Error("Failed to record update failure", zap.Uint("post_id", post.ID), zap.Error(saveErr))
			}
		}
		return nil, err
	}
	return handles, nil
}

// deleteRemote deletes ids from the page in order. After each delete the
// handles still live are stored, so a failure part-way leaves an accurate
// record.
func (s *PostService) deleteRemote(ctx context.Context, post *models.Post, target publisher.Target, ids []string) error {
	for _, remoteID := range ids {
		if err := s.publisher.Delete(ctx, remoteID, target.AccessToken); err != nil {
			return err
		}
		live := slices.DeleteFunc(post.RemoteIDs(), func(id string) bool { return id == remoteID })
		post.SetRemoteIDs(live)
		if err := s.posts.SetRemoteIDs(ctx, post.ID, live); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a post's live handles from its page and returns it to
// draft. This covers published posts and failed ones that went live
// part-way.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	ids := post.RemoteIDs()
	if len(ids) == 0 {
		return ErrNotPublished
	}
	target, err := targetOf(post.PlatformAccount)
	if err != nil {
		return err
	}

	if err := s.deleteRemote(ctx, post, target, ids); err != nil {
		return err
	}
	return s.posts.MarkRemoteDeleted(ctx, id)
}

// PublishAll publishes each post in order.
func (s *PostService) PublishAll(ctx context.Context, ids []uint) BulkResult {
	var result BulkResult
	for _, id := range ids {
		_, err := s.Publish(ctx, id)
		result.record(id, err)
	}
	return result
}

// DeleteAll deletes each post from its page in order.
func (s *PostService) DeleteAll(ctx context.Context, ids []uint) BulkResult {
	var result BulkResult
	for _, id := range ids {
		result.record(id, s.Delete(ctx, id))
	}
	return result
}
