package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/analytics"
	"github.com/nhankey2000/auto-post/internal/util"
)

// SyncAnalytics pulls page insights into the local series
// POST /api/v1/accounts/:id/analytics/sync
func (h *Handlers) SyncAnalytics(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Since string `json:"since"`
		Until string `json:"until"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, err.Error())
			return
		}
	}
	since, until, ok := parseRange(c, req.Since, req.Until)
	if !ok {
		return
	}

	summary, err := h.analytics.Sync(c.Request.Context(), id, since, until)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"days":            len(summary.Points),
		"points":          summary.Points,
		"page_series":     summary.PageSeries,
		"posts_scanned":   summary.PostsScanned,
		"posts_skipped":   summary.PostsSkipped,
		"followers_count": summary.FollowersCount,
	})
}

// GetAnalytics returns the stored series
// GET /api/v1/accounts/:id/analytics?since=&until=
func (h *Handlers) GetAnalytics(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	since, until, ok := parseRange(c, c.Query("since"), c.Query("until"))
	if !ok {
		return
	}

	points, err := h.analytics.Series(c.Request.Context(), id, since, until)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// parseRange reads optional YYYY-MM-DD bounds; zero times mean "default".
func parseRange(c *gin.Context, sinceRaw, untilRaw string) (time.Time, time.Time, bool) {
	var since, until time.Time
	var err error
	if sinceRaw != "" {
		if since, err = time.Parse(analytics.DateLayout, sinceRaw); err != nil {
			util.RespondValidationError(c, "since", "expected YYYY-MM-DD")
			return since, until, false
		}
	}
	if untilRaw != "" {
		if until, err = time.Parse(analytics.DateLayout, untilRaw); err != nil {
			util.RespondValidationError(c, "until", "expected YYYY-MM-DD")
			return since, until, false
		}
	}
	return since, until, true
}
