package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route so raw paths
// carrying child or lot IDs never become metric labels.
const unmatchedRoute = "unmatched"

// Metrics observes latency and status per route template.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
