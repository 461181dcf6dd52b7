package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a dependency.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health handles GET /health. A nil db reports OK without checking.
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now().UTC().Format(time.RFC3339)
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "timestamp": now, "message": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": now, "message": "Server is running"})
	}
}
