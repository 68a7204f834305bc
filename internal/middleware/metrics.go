package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"valuator/internal/metrics"
)

// Metrics records request counts and latencies by route template.
// Unmatched routes are reported as "unmatched" to keep label cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
