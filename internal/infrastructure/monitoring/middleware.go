package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// Route template, not raw path, to keep label cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(method, path, status, time.Since(start))
	}
}

// Handler serves the registry in Prometheus exposition format.
func Handler(metrics *Metrics) http.Handler {
	return promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})
}

// GinHandler adapts Handler for a gin route and refreshes uptime per scrape.
func GinHandler(metrics *Metrics) gin.HandlerFunc {
	h := Handler(metrics)
	return func(c *gin.Context) {
		metrics.UpdateUptime()
		h.ServeHTTP(c.Writer, c.Request)
	}
}
