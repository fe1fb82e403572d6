package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl sets short-lived cache headers on read-only slot queries so
// clients and proxies do not hammer the slot generator.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}

		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d, must-revalidate", maxAgeSeconds))
		c.Header("Vary", "Authorization")
		c.Next()
	}
}
