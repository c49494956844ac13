package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ywy929/assay-dashboard-backend/config"
)

// SyncGate protects the sync endpoints: requests must present the shared
// X-Sync-Key and originate from an allowlisted IP (the on-premise node).
func SyncGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.SyncAPIKey == "" || c.GetHeader("X-Sync-Key") != config.SyncAPIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid sync API key"})
			return
		}

		clientIP := c.ClientIP()
		// Behind a reverse proxy the originating address is the first
		// entry of X-Forwarded-For.
		if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
			clientIP = strings.TrimSpace(strings.Split(forwarded, ",")[0])
		}

		for _, ip := range config.SyncAllowedIPs {
			if clientIP == ip {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "IP " + clientIP + " not allowed for sync operations"})
	}
}
