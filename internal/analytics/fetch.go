package analytics

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/nhankey2000/auto-post/internal/graph"
	"go.uber.org/zap"
)

// maxPostPages bounds how many pages of the post list are followed.
const maxPostPages = 10

type insightValue struct {
	Value   interface{} `json:"value"`
	EndTime string      `json:"end_time"`
}

type insight struct {
	Name    string         `json:"name"`
	EndTime string         `json:"end_time"`
	Values  []insightValue `json:"values"`
}

type insightsResponse struct {
	Data []insight `json:"data"`
}

type postsResponse struct {
	Data []struct {
		ID          string `json:"id"`
		CreatedTime string `json:"created_time"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type postTotals struct {
	impressions int64
	engagements int64
	linkClicks  int64
}

// pageSeries returns date → value for one page metric. A datum whose
// end_time is T belongs to the day before T.
func (a *Aggregator) pageSeries(ctx context.Context, account Account, metric string, since, until time.Time) (map[string]int64, error) {
	resp, err := a.graph.Execute(ctx, &graph.Request{
		Name:   "page.insights",
		Method: http.MethodGet,
		Path:   account.PageID + "/insights",
		Query: url.Values{
			"metric":       {metric},
			"period":       {"day"},
			"since":        {since.Format(DateLayout)},
			"until":        {until.Format(DateLayout)},
			"access_token": {account.AccessToken},
		},
	})
	if err != nil {
		return nil, err
	}
	if remote := resp.RemoteError(); remote != nil {
		return nil, remote
	}

	var body insightsResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	series := map[string]int64{}
	for _, item := range body.Data {
		for _, v := range item.Values {
			end := v.EndTime
			if end == "" {
				end = item.EndTime
			}
			date, ok := dayBefore(end)
			if !ok {
				continue
			}
			if _, seen := series[date]; !seen {
				series[date] = toInt64(v.Value)
			}
		}
	}
	return series, nil
}

// postSeries sums per-post insights by the post's creation day. Posts whose
// insights cannot be fetched are skipped; a failed post list yields no data.
func (a *Aggregator) postSeries(ctx context.Context, account Account, since, until time.Time, summary *Summary, log *zap.Logger) map[string]postTotals {
	totals := map[string]postTotals{}

	req := &graph.Request{
		Name:   "page.posts",
		Method: http.MethodGet,
		Path:   account.PageID + "/posts",
		Query: url.Values{
			"fields":       {"created_time"},
			"since":        {since.Format(DateLayout)},
			"until":        {until.Format(DateLayout)},
			"access_token": {account.AccessToken},
		},
	}

	for page := 0; page < maxPostPages && req != nil; page++ {
		var body postsResponse
		resp, err := a.graph.Execute(ctx, req)
		if err == nil {
			if remote := resp.RemoteError(); remote != nil {
				err = remote
			} else {
				err = resp.Decode(&body)
			}
		}
		if err != nil {
			log.Warn("Failed to fetch posts", zap.Error(err))
			return totals
		}

		for _, post := range body.Data {
			summary.PostsScanned++
			created, ok := parseGraphTime(post.CreatedTime)
			if !ok {
				summary.PostsSkipped++
				continue
			}
			t, err := a.postInsights(ctx, account, post.ID)
			if err != nil {
				summary.PostsSkipped++
				log.Warn("Failed to fetch post insights", zap.String("post_id", post.ID), zap.Error(err))
				continue
			}

			date := created.Format(DateLayout)
			sum := totals[date]
			sum.impressions += t.impressions
			sum.engagements += t.engagements
			sum.linkClicks += t.linkClicks
			totals[date] = sum
		}

		req = nil
		if body.Paging.Next != "" {
			req = &graph.Request{Name: "page.posts", Method: http.MethodGet, Path: body.Paging.Next}
		}
	}
	return totals
}

func (a *Aggregator) postInsights(ctx context.Context, account Account, postID string) (postTotals, error) {
	resp, err := a.graph.Execute(ctx, &graph.Request{
		Name:   "post.insights",
		Method: http.MethodGet,
		Path:   postID + "/insights",
		Query: url.Values{
			"metric":       {postMetrics},
			"access_token": {account.AccessToken},
		},
	})
	if err != nil {
		return postTotals{}, err
	}
	if remote := resp.RemoteError(); remote != nil {
		return postTotals{}, remote
	}

	var body insightsResponse
	if err := resp.Decode(&body); err != nil {
		return postTotals{}, err
	}

	var t postTotals
	for _, item := range body.Data {
		if len(item.Values) == 0 {
			continue
		}
		value := item.Values[0].Value
		switch item.Name {
		case "post_impressions":
			t.impressions = toInt64(value)
		case "post_engaged_users":
			t.engagements = toInt64(value)
		case "post_clicks_by_type":
			if byType, ok := value.(map[string]interface{}); ok {
				t.linkClicks = toInt64(byType["link clicks"])
			}
		}
	}
	return t, nil
}

// followers fetches the current follower count, or nil if unavailable.
func (a *Aggregator) followers(ctx context.Context, account Account, log *zap.Logger) *int64 {
	resp, err := a.graph.Execute(ctx, &graph.Request{
		Name:   "page.fields",
		Method: http.MethodGet,
		Path:   account.PageID,
		Query: url.Values{
			"fields":       {"followers_count"},
			"access_token": {account.AccessToken},
		},
	})
	var body struct {
		FollowersCount *int64 `json:"followers_count"`
	}
	if err == nil {
		err = resp.Decode(&body)
	}
	if err != nil {
		log.Warn("Failed to fetch followers count", zap.Error(err))
		return nil
	}
	if body.FollowersCount == nil {
		zero := int64(0)
		return &zero
	}
	return body.FollowersCount
}

func parseGraphTime(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dayBefore(endTime string) (string, bool) {
	t, ok := parseGraphTime(endTime)
	if !ok {
		return "", false
	}
	return t.AddDate(0, 0, -1).Format(DateLayout), true
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
