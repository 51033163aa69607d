package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// listHeadlines queries headlines by source, recency, and title keyword.
// Keyword-only queries are served from the search index when one is wired;
// everything else hits storage directly.
// GET /api/v1/headlines?source=&since=&keyword=&limit=
func (r *Router) listHeadlines(c *gin.Context) {
	ctx := c.Request.Context()

	var filter models.HeadlineFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	if r.searchable(&filter) {
		var since time.Time
		if filter.Since != nil {
			since = *filter.Since
		}

		docs, err := r.searcher.SearchTitles(ctx, *filter.Keyword, since, filter.Limit)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"headlines": docs,
				"count":     len(docs),
			})
			return
		}
		r.log.Warn("search query failed, falling back to storage",
			logger.String("keyword", *filter.Keyword),
			logger.Error(err),
		)
	}

	headlines, err := r.store.HeadlinesSince(ctx, &filter)
	if err != nil {
		handleStoreError(c, err, "headlines", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"headlines": headlines,
		"count":     len(headlines),
	})
}

// searchable reports whether the filter can be answered by the search
// index: a keyword is present and no platform filter narrows it further.
func (r *Router) searchable(filter *models.HeadlineFilter) bool {
	return r.searcher != nil &&
		filter.PlatformID == nil &&
		filter.Keyword != nil && *filter.Keyword != ""
}

// getHeadline returns one headline with its source attached
// GET /api/v1/headlines/:id
func (r *Router) getHeadline(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "headline")
	if !ok {
		return
	}

	headline, err := r.store.GetHeadline(ctx, id)
	if err != nil {
		handleStoreError(c, err, "headline", "get")
		return
	}

	c.JSON(http.StatusOK, headline)
}

// listOccurrences returns a headline's rank history, most recent first
// GET /api/v1/headlines/:id/occurrences?limit=
func (r *Router) listOccurrences(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "headline")
	if !ok {
		return
	}

	limit := parseLimit(c, defaultOccurrenceLimit)

	occurrences, err := r.store.OccurrencesFor(ctx, id, limit)
	if err != nil {
		handleStoreError(c, err, "occurrences", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"occurrences": occurrences,
		"count":       len(occurrences),
	})
}
