package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/metrics"
)

// getDailyStats returns per-source daily aggregates for a date range,
// defaulting to the last seven days
// GET /api/v1/stats/daily?from=2026-08-18&to=2026-08-25
func (r *Router) getDailyStats(c *gin.Context) {
	ctx := c.Request.Context()

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	to, ok := parseDay(c, "to", today)
	if !ok {
		return
	}
	from, ok := parseDay(c, "from", to.AddDate(0, 0, -(defaultStatsDays-1)))
	if !ok {
		return
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "from must not be after to",
		})
		return
	}

	stats, err := r.store.DailyStats(ctx, from, to)
	if err != nil {
		handleStoreError(c, err, "daily stats", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":  from.Format(dateLayout),
		"to":    to.Format(dateLayout),
		"stats": stats,
		"count": len(stats),
	})
}

// getActivity returns the redis-backed activity snapshot: per-day counters
// plus the most recent crawl and push entries
// GET /api/v1/stats/activity?days=7
func (r *Router) getActivity(c *gin.Context) {
	ctx := c.Request.Context()

	days := defaultActivityDays
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}
	if days > maxActivityDays {
		days = maxActivityDays
	}

	stats, err := r.activity.GetStats(ctx, days)
	if err != nil {
		r.log.Error("failed to load activity stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load activity stats",
		})
		return
	}

	// Recent entries are best effort; a read failure leaves them empty.
	crawls, err := r.activity.RecentCrawls(ctx, recentActivityLimit)
	if err != nil {
		r.log.Warn("failed to load recent crawls", logger.Error(err))
	}
	pushes, err := r.activity.RecentPushes(ctx, recentActivityLimit)
	if err != nil {
		r.log.Warn("failed to load recent pushes", logger.Error(err))
	}
	if crawls == nil {
		crawls = []metrics.RecentCrawl{}
	}
	if pushes == nil {
		pushes = []metrics.RecentPush{}
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":         stats,
		"recent_crawls": crawls,
		"recent_pushes": pushes,
	})
}
