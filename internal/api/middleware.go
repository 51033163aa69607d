package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	corsMaxAgeHours = 12
)

// defaultCORSOrigins covers the local dashboard frontend.
var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// corsMiddleware creates a CORS middleware for the configured origins
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	})
}
