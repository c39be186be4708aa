// Package metrics registra los collectors Prometheus de Track y expone /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal cuenta requests por método, ruta y status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "track_http_requests_total",
		Help: "Total de requests HTTP procesados.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration mide latencia por método y ruta.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "track_http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// TokensIssued cuenta tokens emitidos por grant type.
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "track_tokens_issued_total",
		Help: "Access tokens emitidos, por grant type.",
	}, []string{"grant_type"})

	// TokensRevoked cuenta revocaciones efectivas (no los always-200 vacíos).
	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "track_tokens_revoked_total",
		Help: "Tokens revocados vía /oauth/revoke.",
	})

	// CodesIssued cuenta authorization codes emitidos.
	CodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "track_authorization_codes_issued_total",
		Help: "Authorization codes emitidos.",
	})
)

// Handler retorna el handler de /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
