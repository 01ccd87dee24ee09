package repository

import (
	"context"

	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/nhankey2000/auto-post/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricRepository stores the daily page metric series
type MetricRepository interface {
	analytics.MetricStore
	ListRange(ctx context.Context, accountID uint, since, until string) ([]*models.MetricPoint, error)
}

type metricRepository struct {
	db *gorm.DB
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *gorm.DB) MetricRepository {
	return &metricRepository{db: db}
}

var metricColumns = []string{"impressions", "engagements", "reach", "link_clicks", "updated_at"}

// UpsertMetricPoints inserts or merges points on (platform_account_id, date).
// Points without a follower count leave the stored one untouched.
func (r *metricRepository) UpsertMetricPoints(ctx context.Context, accountID uint, points []analytics.MetricPoint) error {
	var withFollowers, withoutFollowers []models.MetricPoint
	for _, p := range points {
		row := models.MetricPoint{
			PlatformAccountID: accountID,
			Date:              p.Date,
			Impressions:       p.Impressions,
			Engagements:       p.Engagements,
			Reach:             p.Reach,
			LinkClicks:        p.LinkClicks,
		}
		if p.FollowersCount != nil {
			row.FollowersCount = *p.FollowersCount
			withFollowers = append(withFollowers, row)
		} else {
			withoutFollowers = append(withoutFollowers, row)
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, withFollowers, append([]string{"followers_count"}, metricColumns...)); err != nil {
			return err
		}
		return upsert(tx, withoutFollowers, metricColumns)
	})
}

func upsert(tx *gorm.DB, rows []models.MetricPoint, columns []string) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform_account_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&rows).Error
}

func (r *metricRepository) ListRange(ctx context.Context, accountID uint, since, until string) ([]*models.MetricPoint, error) {
	var points []*models.MetricPoint
	err := r.db.WithContext(ctx).
		Where("platform_account_id = ? AND date >= ? AND date <= ?", accountID, since, until).
		Order("date ASC").
		Find(&points).Error
	return points, err
}
