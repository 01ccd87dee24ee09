package models

import "time"

// MetricPoint is one day of page metrics. (PlatformAccountID, Date) is
// unique; rows are only ever written by upsert.
type MetricPoint struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	PlatformAccountID uint   `gorm:"not null;uniqueIndex:idx_page_analytics_account_date" json:"platform_account_id"`
	Date              string `gorm:"type:varchar(10);not null;uniqueIndex:idx_page_analytics_account_date" json:"date"`

	Impressions    int64 `gorm:"not null;default:0" json:"impressions"`
	Engagements    int64 `gorm:"not null;default:0" json:"engagements"`
	Reach          int64 `gorm:"not null;default:0" json:"reach"`
	LinkClicks     int64 `gorm:"not null;default:0" json:"link_clicks"`
	FollowersCount int64 `gorm:"not null;default:0" json:"followers_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (MetricPoint) TableName() string {
	return "page_analytics"
}
