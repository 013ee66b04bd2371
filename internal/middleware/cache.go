package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids clients and proxies from caching responses.
// Generated exams and attempts are per-user and must never be served from a cache.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
