package middleware

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS restricts cross-origin requests to the origins listed in the
// HYGIEIA_CORS_ALLOWED_ORIGINS environment variable (comma separated).
// Unset means allow all, which suits local development with the dashboard
// served from another port.
func CORS() gin.HandlerFunc {
	raw := os.Getenv("HYGIEIA_CORS_ALLOWED_ORIGINS")
	allowAll := raw == ""

	allowed := make(map[string]struct{})
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		} else if c.Request.Method == "OPTIONS" {
			// Preflight from an origin we don't serve.
			c.AbortWithStatus(403)
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-User-ID, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
