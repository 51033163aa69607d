package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// getReport generates a report over the requested window on demand
// GET /api/v1/reports/:mode
func (r *Router) getReport(c *gin.Context) {
	ctx := c.Request.Context()

	mode, err := models.ParseReportMode(c.Param("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid report mode. Valid values: daily, incremental, current",
		})
		return
	}

	report, err := r.reporter.Generate(ctx, mode, time.Now())
	if err != nil {
		r.log.Error("failed to generate report",
			logger.String("mode", string(mode)),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate report",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
