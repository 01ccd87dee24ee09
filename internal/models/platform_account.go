package models

import (
	"time"

	"gorm.io/gorm"
)

// PlatformAccount is a connected page and the credentials used to act on it.
// ExpiresAt is nil when the token does not expire (or was never checked).
type PlatformAccount struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Platform    string     `gorm:"not null;default:facebook;index" json:"platform"`
	PageID      string     `gorm:"not null;index" json:"page_id"`
	AppID       string     `json:"app_id"`
	AppSecret   string     `json:"-"`
	AccessToken string     `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at"`

	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	LastCheckOK   bool       `json:"last_check_ok"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (PlatformAccount) TableName() string {
	return "platform_accounts"
}
