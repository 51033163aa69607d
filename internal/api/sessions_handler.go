package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getLatestSession returns the most recently started crawl session
// GET /api/v1/sessions/latest
func (r *Router) getLatestSession(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := r.store.LatestSession(ctx)
	if err != nil {
		handleStoreError(c, err, "session", "get")
		return
	}

	c.JSON(http.StatusOK, session)
}

// listSessions returns crawl sessions, newest first
// GET /api/v1/sessions?limit=
func (r *Router) listSessions(c *gin.Context) {
	ctx := c.Request.Context()

	limit := parseLimit(c, defaultSessionLimit)

	sessions, err := r.store.ListSessions(ctx, limit)
	if err != nil {
		handleStoreError(c, err, "sessions", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
