package middleware

import (
	"strconv"
	"time"

	"novel_platform/internal/metrics"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics observes request latency per route pattern
func HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPLatency.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
