package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listSources returns the configured sources
// GET /api/v1/sources?active_only=true
func (r *Router) listSources(c *gin.Context) {
	ctx := c.Request.Context()

	const queryTrue = "true"
	activeOnly := c.Query("active_only") == queryTrue

	sources, err := r.store.ListSources(ctx, activeOnly)
	if err != nil {
		handleStoreError(c, err, "sources", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}
