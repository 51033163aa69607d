package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listPushes returns push records, newest first
// GET /api/v1/pushes?limit=
func (r *Router) listPushes(c *gin.Context) {
	ctx := c.Request.Context()

	limit := parseLimit(c, defaultPushLimit)

	pushes, err := r.store.ListPushes(ctx, limit)
	if err != nil {
		handleStoreError(c, err, "pushes", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pushes": pushes,
		"count":  len(pushes),
	})
}
