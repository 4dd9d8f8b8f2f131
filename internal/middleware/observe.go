package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/observability"
)

// RequestObserver records a duration histogram sample per request and
// emits one structured access log line. Routes are labelled by their
// template (":wallet", not the concrete value) to keep metric
// cardinality bounded.
func RequestObserver(log *logger.Logger) gin.HandlerFunc {
	accessLog := log.With("middleware", "RequestObserver")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		observability.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		if status >= 500 {
			accessLog.Error("HTTP request failed",
				"method", c.Request.Method,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"client_ip", c.ClientIP(),
				"request_id", c.GetString(ContextKeyRequestID))
			return
		}
		accessLog.Debug("HTTP request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ContextKeyRequestID))
	}
}
