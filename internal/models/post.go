package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus tracks whether a post is live on its page
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// Post is a locally authored post and, once published, the handles Graph
// returned for it. Video posts with two videos keep the second handle in
// ExtraRemoteIDs.
type Post struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	PlatformAccountID uint             `gorm:"not null;index" json:"platform_account_id"`
	PlatformAccount   *PlatformAccount `gorm:"foreignKey:PlatformAccountID" json:"platform_account,omitempty"`

	Title    string   `json:"title"`
	Content  string   `gorm:"type:text" json:"content"`
	Hashtags []string `gorm:"serializer:json;type:text" json:"hashtags"`
	Media    []string `gorm:"serializer:json;type:text" json:"media"`

	Status         PostStatus `gorm:"not null;default:draft;index" json:"status"`
	RemotePostID   string     `gorm:"index" json:"remote_post_id,omitempty"`
	ExtraRemoteIDs []string   `gorm:"serializer:json;type:text" json:"extra_remote_ids,omitempty"`
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`

	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (Post) TableName() string {
	return "posts"
}

// RemoteIDs returns every remote handle of the post, primary first.
func (p *Post) RemoteIDs() []string {
	if p.RemotePostID == "" {
		return nil
	}
	return append([]string{p.RemotePostID}, p.ExtraRemoteIDs...)
}

// SetRemoteIDs stores ids as the post's handles, primary first. An empty
// list clears them.
func (p *Post) SetRemoteIDs(ids []string) {
	p.RemotePostID, p.ExtraRemoteIDs = "", nil
	if len(ids) > 0 {
		p.RemotePostID = ids[0]
		p.ExtraRemoteIDs = ids[1:]
	}
}
