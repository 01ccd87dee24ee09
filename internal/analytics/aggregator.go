// Package analytics builds the daily page metric series. Page-level insights
// are preferred; per-post insights summed by creation day fill the gaps.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhankey2000/auto-post/internal/graph"
	"github.com/nhankey2000/auto-post/internal/metrics"
	"go.uber.org/zap"
)

// DateLayout is the civil date format used for MetricPoint.Date and the
// since/until query parameters.
const DateLayout = "2006-01-02"

const (
	metricImpressions = "page_impressions"
	metricEngagements = "page_post_engagements"
	metricReach       = "page_impressions_unique"

	postMetrics = "post_impressions,post_engaged_users,post_clicks_by_type"
)

var (
	// ErrInsightsPermission aborts a run: the token may not read insights.
	ErrInsightsPermission = errors.New("access token lacks permission to read insights")
	ErrMissingCredentials = errors.New("page id and access token are required")
	ErrInvalidRange       = errors.New("until is before since")
)

// Account is the page whose metrics are aggregated.
type Account struct {
	ID          uint
	PageID      string
	AccessToken string
}

// MetricPoint is one day of page metrics. FollowersCount is nil when the
// snapshot could not be fetched; stores must then leave the column as is.
type MetricPoint struct {
	Date           string
	Impressions    int64
	Engagements    int64
	Reach          int64
	LinkClicks     int64
	FollowersCount *int64
}

// MetricStore persists points keyed by (account, date). Writing the same
// key twice must merge, never duplicate.
type MetricStore interface {
	UpsertMetricPoints(ctx context.Context, accountID uint, points []MetricPoint) error
}

// Summary describes what a run fetched and wrote.
type Summary struct {
	Points         []MetricPoint
	PageSeries     map[string]int // datums received per page metric
	PostsScanned   int
	PostsSkipped   int
	FollowersCount *int64
}

// Aggregator runs the aggregation against Graph and writes to a MetricStore.
type Aggregator struct {
	graph   graph.Doer
	store   MetricStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewAggregator creates an Aggregator. log and m may be nil.
func NewAggregator(doer graph.Doer, store MetricStore, log *zap.Logger, m *metrics.Metrics) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{graph: doer, store: store, log: log, metrics: m}
}

// Aggregate fetches insights for [since, until] (inclusive civil dates) and
// upserts one MetricPoint per day. Partial remote failures are logged and
// treated as missing data; a permission error aborts before anything is
// written.
func (a *Aggregator) Aggregate(ctx context.Context, account Account, since, until time.Time) (*Summary, error) {
	if account.PageID == "" || account.AccessToken == "" {
		return nil, ErrMissingCredentials
	}
	since, until = civil(since), civil(until)
	if until.Before(since) {
		return nil, ErrInvalidRange
	}

	log := a.log.With(zap.Uint("account_id", account.ID), zap.String("page_id", account.PageID))
	summary := &Summary{PageSeries: map[string]int{}}

	page := map[string]map[string]int64{}
	for _, metric := range []string{metricImpressions, metricEngagements, metricReach} {
		series, err := a.pageSeries(ctx, account, metric, since, until)
		if err != nil {
			if code, ok := graph.RemoteCode(err); ok && code == graph.CodePermission {
				log.Error("Insights permission denied", zap.String("metric", metric), zap.Error(err))
				return nil, fmt.Errorf("%w (%s): %s", ErrInsightsPermission, metric, graph.Message(err))
			}
			log.Warn("Failed to fetch page insights", zap.String("metric", metric), zap.Error(err))
			series = map[string]int64{}
		}
		page[metric] = series
		summary.PageSeries[metric] = len(series)
	}

	posts := a.postSeries(ctx, account, since, until, summary, log)
	summary.FollowersCount = a.followers(ctx, account, log)

	for d := since; !d.After(until); d = d.AddDate(0, 0, 1) {
		date := d.Format(DateLayout)
		post := posts[date]

		point := MetricPoint{
			Date:           date,
			Impressions:    preferPage(page[metricImpressions], date, post.impressions),
			Engagements:    preferPage(page[metricEngagements], date, post.engagements),
			Reach:          page[metricReach][date],
			LinkClicks:     post.linkClicks,
			FollowersCount: summary.FollowersCount,
		}
		summary.Points = append(summary.Points, point)
	}

	if err := a.store.UpsertMetricPoints(ctx, account.ID, summary.Points); err != nil {
		return nil, fmt.Errorf("store metric points: %w", err)
	}
	if a.metrics != nil {
		a.metrics.MetricPointsUpserted.Add(float64(len(summary.Points)))
	}

	log.Info("Aggregated page analytics",
		zap.String("since", since.Format(DateLayout)),
		zap.String("until", until.Format(DateLayout)),
		zap.Int("days", len(summary.Points)),
		zap.Int("posts_scanned", summary.PostsScanned),
		zap.Int("posts_skipped", summary.PostsSkipped),
	)
	return summary, nil
}

// preferPage uses the page-level value for date when there is a non-zero
// one, otherwise the post-level sum.
func preferPage(series map[string]int64, date string, fallback int64) int64 {
	if v := series[date]; v != 0 {
		return v
	}
	return fallback
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
