package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/damont/track/internal/metrics"
)

// WithMetrics observa cada request en los collectors Prometheus.
// routePattern debe ser la ruta declarada (no el path real) para no explotar
// la cardinalidad de labels.
func WithMetrics(routePattern string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, routePattern, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, routePattern).Observe(time.Since(start).Seconds())
		})
	}
}
