package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listWordGroups returns the active word groups with their words attached
// GET /api/v1/word-groups
func (r *Router) listWordGroups(c *gin.Context) {
	ctx := c.Request.Context()

	groups, err := r.store.ActiveWordGroups(ctx)
	if err != nil {
		handleStoreError(c, err, "word groups", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"word_groups": groups,
		"count":       len(groups),
	})
}
