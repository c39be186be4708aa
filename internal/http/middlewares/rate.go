package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/damont/track/internal/http/errors"
	"github.com/damont/track/internal/observability/logger"
	"github.com/damont/track/internal/rate"
)

// clientIP extrae la IP del cliente, considerando proxies.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// OAuthRateKey agrupa por client_id cuando viene en el form, si no por IP.
// Los endpoints OAuth son form-encoded, así que ParseForm acá es seguro.
func OAuthRateKey(r *http.Request) string {
	_ = r.ParseForm()
	if cid := strings.TrimSpace(r.PostForm.Get("client_id")); cid != "" {
		return "client:" + cid
	}
	if cid := strings.TrimSpace(r.URL.Query().Get("client_id")); cid != "" {
		return "client:" + cid
	}
	return "ip:" + clientIP(r)
}

// IPRateKey agrupa solo por IP del cliente.
func IPRateKey(r *http.Request) string {
	return "ip:" + clientIP(r)
}

// WithRateLimit aplica el limiter con la key dada. Si el limiter falla
// (ej: redis caído) el request pasa: disponibilidad sobre throttling.
func WithRateLimit(l rate.Limiter, key RateKeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}
			res, err := l.Allow(r.Context(), r.URL.Path+":"+key(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds()+0.5)))
				}
				errors.WriteError(w, errors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
