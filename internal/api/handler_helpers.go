package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/models"
)

const (
	dateLayout = "2006-01-02"

	defaultOccurrenceLimit = 50
	defaultSessionLimit    = 20
	defaultPushLimit       = 20
	defaultStatsDays       = 7
	defaultActivityDays    = 7
	maxActivityDays        = 30
	recentActivityLimit    = 10
)

// parseUUID parses a UUID from a gin.Context parameter
func parseUUID(c *gin.Context, paramName, entityType string) (uuid.UUID, bool) {
	idParam := c.Param(paramName)
	id, err := uuid.Parse(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + entityType + " ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseLimit reads an optional positive limit query parameter, falling back
// on empty or malformed input.
func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

// parseDay reads a YYYY-MM-DD query parameter. Answers 400 itself on
// malformed input and reports false.
func parseDay(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name + " date, expected " + dateLayout,
		})
		return time.Time{}, false
	}
	return day, true
}

// handleStoreError handles common persistence errors
func handleStoreError(c *gin.Context, err error, entityType, operation string) {
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": entityType + " not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to " + operation + " " + entityType,
	})
}
