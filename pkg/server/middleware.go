package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

var openModeOnce sync.Once

// APIKeyAuth guards routes with a shared secret in the X-API-Key header.
// An empty key runs the server in open mode; the comparison is constant
// time so the key cannot be probed byte by byte.
func APIKeyAuth(key string, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		openModeOnce.Do(func() {
			logger.Warn("API_KEY not set, running in open mode")
		})
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}
