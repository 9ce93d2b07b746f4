package middleware

import (
	"time"

	"granttrack/internal"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request with its status and latency
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	logger = logger.Component("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		line := logger.With("status", status).With("latency_ms", time.Since(start).Milliseconds())
		switch {
		case status >= 500:
			line.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, c.Errors.ByType(gin.ErrorTypeAny))
		case status >= 400:
			line.Warn("%s %s", c.Request.Method, c.Request.URL.Path)
		default:
			line.Debug("%s %s", c.Request.Method, c.Request.URL.Path)
		}
	}
}
