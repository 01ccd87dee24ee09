package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nhankey2000/auto-post/internal/models"
	"gorm.io/gorm"
)

// PostFilter narrows List results. Zero values match everything.
type PostFilter struct {
	AccountID uint
	Status    models.PostStatus
	Limit     int
	Offset    int
}

// PostRepository handles database operations for posts
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// Get loads a post with its platform account.
	Get(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	MarkPublished(ctx context.Context, id uint, remoteIDs []string, at time.Time) error
	MarkRemoteDeleted(ctx context.Context, id uint) error
	// MarkFailed records a failed publish. remoteIDs are handles that went
	// live before the failure and still need deleting.
	MarkFailed(ctx context.Context, id uint, reason string, remoteIDs []string) error
	// SetRemoteIDs replaces the stored handles without touching the status.
	SetRemoteIDs(ctx context.Context, id uint, remoteIDs []string) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post == nil || post.PlatformAccountID == 0 {
		return ErrInvalidInput
	}
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("PlatformAccount").First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	q := r.db.WithContext(ctx).Order("id DESC")
	if filter.AccountID != 0 {
		q = q.Where("platform_account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var posts []*models.Post
	err := q.Find(&posts).Error
	return posts, err
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if post == nil || post.ID == 0 {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Omit("PlatformAccount").Save(post).Error
}

func (r *postRepository) MarkPublished(ctx context.Context, id uint, remoteIDs []string, at time.Time) error {
	if len(remoteIDs) == 0 {
		return ErrInvalidInput
	}
	post := models.Post{Status: models.PostStatusPublished, PublishedAt: &at}
	post.SetRemoteIDs(remoteIDs)
	return r.updateFields(ctx, id, &post, "status", "remote_post_id", "extra_remote_ids", "published_at", "last_error")
}

func (r *postRepository) MarkRemoteDeleted(ctx context.Context, id uint) error {
	post := models.Post{Status: models.PostStatusDraft}
	return r.updateFields(ctx, id, &post, "status", "remote_post_id", "extra_remote_ids", "published_at")
}

func (r *postRepository) MarkFailed(ctx context.Context, id uint, reason string, remoteIDs []string) error {
	post := models.Post{Status: models.PostStatusFailed, LastError: reason}
	post.SetRemoteIDs(remoteIDs)
	return r.updateFields(ctx, id, &post, "status", "last_error", "remote_post_id", "extra_remote_ids")
}

func (r *postRepository) SetRemoteIDs(ctx context.Context, id uint, remoteIDs []string) error {
	var post models.Post
	post.SetRemoteIDs(remoteIDs)
	return r.updateFields(ctx, id, &post, "remote_post_id", "extra_remote_ids")
}

// updateFields writes the selected columns, zero values included.
func (r *postRepository) updateFields(ctx context.Context, id uint, values *models.Post, columns ...string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{ID: id}).Select(columns).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
