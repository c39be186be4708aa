package middlewares

import (
	"net/http"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/http/errors"
)

// RequireScope verifica que el access token contenga el scope requerido.
// Debe usarse después de RequireAuth.
func RequireScope(scope repository.Scope) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("no principal in context"))
				return
			}
			if !p.HasScope(scope) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+string(scope)+`"`)
				errors.WriteError(w, errors.ErrInsufficientScopes.WithDetail("required scope: "+string(scope)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
