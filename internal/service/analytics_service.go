package service

import (
	"context"
	"time"

	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/nhankey2000/auto-post/internal/repository"
	"github.com/nhankey2000/auto-post/internal/telemetry"
	"go.uber.org/zap"
)

// DefaultAnalyticsDays is the trailing window synced when no range is given
const DefaultAnalyticsDays = 7

// AnalyticsService syncs page metrics into the local series
type AnalyticsService struct {
	accounts    repository.AccountRepository
	points      repository.MetricRepository
	aggregator  Aggregator
	defaultDays int
	log         *zap.Logger
	now         func() time.Time
}

// NewAnalyticsService creates an AnalyticsService. defaultDays <= 0 uses
// DefaultAnalyticsDays; log may be nil.
func NewAnalyticsService(accounts repository.AccountRepository, points repository.MetricRepository, aggregator Aggregator, defaultDays int, log *zap.Logger) *AnalyticsService {
	if defaultDays <= 0 {
		defaultDays = DefaultAnalyticsDays
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalyticsService{
		accounts:    accounts,
		points:      points,
		aggregator:  aggregator,
		defaultDays: defaultDays,
		log:         log,
		now:         time.Now,
	}
}

// Window returns since and until, filling zero values with the trailing
// default window ending today.
func (s *AnalyticsService) Window(since, until time.Time) (time.Time, time.Time) {
	if until.IsZero() {
		until = s.now().UTC()
	}
	if since.IsZero() {
		since = until.AddDate(0, 0, -(s.defaultDays - 1))
	}
	return since, until
}

// Sync aggregates one account over [since, until].
func (s *AnalyticsService) Sync(ctx context.Context, accountID uint, since, until time.Time) (*analytics.Summary, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	since, until = s.Window(since, until)

	ctx, span := telemetry.StartAnalyticsSync(ctx, accountID, since.Format(analytics.DateLayout), until.Format(analytics.DateLayout))
	summary, err := s.aggregator.Aggregate(ctx, analytics.Account{
		ID:          account.ID,
		PageID:      account.PageID,
		AccessToken: account.AccessToken,
	}, since, until)
	telemetry.End(span, err)
	return summary, err
}

// SyncAll aggregates every active account over the default window.
func (s *AnalyticsService) SyncAll(ctx context.Context) (BulkResult, error) {
	accounts, err := s.accounts.List(ctx, true)
	if err != nil {
		return BulkResult{}, err
	}

	var result BulkResult
	for _, account := range accounts {
		_, err := s.Sync(ctx, account.ID, time.Time{}, time.Time{})
		if err != nil {
			s.log.Warn("Analytics sync failed", zap.Uint("account_id", account.ID), zap.Error(err))
		}
		result.record(account.ID, err)
	}
	return result, nil
}

// Series returns the stored points for [since, until].
func (s *AnalyticsService) Series(ctx context.Context, accountID uint, since, until time.Time) ([]*models.MetricPoint, error) {
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return nil, err
	}
	since, until = s.Window(since, until)
	return s.points.ListRange(ctx, accountID, since.Format(analytics.DateLayout), until.Format(analytics.DateLayout))
}
