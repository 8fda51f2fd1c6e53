package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS applies an allowlist taken from the CORS_ORIGIN env variable
// (comma-separated). With no allowlist configured we fall back to the
// local frontend origins used in development.
func CORS() gin.HandlerFunc {
	allowlist := []string{"http://localhost:3000", "http://localhost:4000"}
	if raw := strings.TrimSpace(os.Getenv("CORS_ORIGIN")); raw != "" {
		allowlist = allowlist[:0]
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowlist = append(allowlist, origin)
			}
		}
	}

	allowed := make(map[string]bool, len(allowlist))
	for _, origin := range allowlist {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// Requests without Origin (curl, server-to-server) pass through.
		if origin != "" && allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
