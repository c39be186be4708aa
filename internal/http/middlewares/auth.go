package middlewares

import (
	"net/http"
	"strings"

	"github.com/damont/track/internal/http/errors"
	oauthsvc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/observability/logger"
)

// BearerToken extrae el token del header Authorization, o "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth valida el bearer token contra el store y deja el Principal
// en el contexto. 401 si falta, expiró, fue revocado o el usuario está
// inactivo.
func RequireAuth(v oauthsvc.ValidateService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer`)
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("missing bearer token"))
				return
			}

			p, err := v.Validate(r.Context(), token)
			if err != nil {
				if err != oauthsvc.ErrInvalidToken {
					logger.From(r.Context()).Error("token validation failed", logger.Err(err))
					errors.WriteError(w, errors.ErrInternalServerError)
					return
				}
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			ctx := setPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
