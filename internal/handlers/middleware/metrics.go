package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nkiryanov/minibank/internal/metrics"
)

// Count requests and observe latency labeled with the route pattern
// Pattern is passed explicitly to keep label cardinality bounded
func MetricsMiddleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := newLogWriter(w)

			next.ServeHTTP(sw, r)

			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.data.responseStatus)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
