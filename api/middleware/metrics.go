package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shopsnap/metrics"
)

// Metrics counts requests by method, route template and status. The
// route template keeps job IDs out of the label values.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
