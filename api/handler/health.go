package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sieve/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// SessionCounter reports browser session usage.
type SessionCounter interface {
	Stats() models.SessionStats
}

// Health returns a handler for GET /api/v1/health. sessions is nil when
// browser tiers are disabled.
//
// Status degrades when more than 80% of browser sessions are in use.
func Health(sessions SessionCounter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.SessionStats
		if sessions != nil {
			stats = sessions.Stats()
		}

		status := "healthy"
		if stats.MaxSessions > 0 && stats.ActiveSessions > int(float64(stats.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			SessionStats: stats,
			Version:      Version,
		})
	}
}
