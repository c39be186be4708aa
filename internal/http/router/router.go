// Package router arma el árbol de rutas HTTP del authorization server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/damont/track/internal/domain/repository"
	healthctrl "github.com/damont/track/internal/http/controllers/health"
	oauthctrl "github.com/damont/track/internal/http/controllers/oauth"
	profilectrl "github.com/damont/track/internal/http/controllers/profile"
	apperrors "github.com/damont/track/internal/http/errors"
	mw "github.com/damont/track/internal/http/middlewares"
	oauthsvc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/rate"
)

// Deps contiene todo lo necesario para construir el router.
type Deps struct {
	// Controllers
	Register  *oauthctrl.RegisterController
	Authorize *oauthctrl.AuthorizeController
	Token     *oauthctrl.TokenController
	Revoke    *oauthctrl.RevokeController
	Profile   *profilectrl.Controller
	Health    *healthctrl.Controller

	// Validación de bearer tokens para rutas protegidas.
	Validate oauthsvc.ValidateService

	// Rate limiters por grupo de endpoints. Opcionales: nil desactiva.
	TokenLimiter     rate.Limiter
	AuthorizeLimiter rate.Limiter

	AllowedOrigins []string
}

// New construye el handler raíz con los middlewares globales aplicados.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, apperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, apperrors.ErrMethodNotAllowed)
	})

	// Health primero: sin rate limit ni auth.
	r.Method(http.MethodGet, "/health", track("/health", d.Health.Health))
	r.Method(http.MethodGet, "/ready", track("/ready", d.Health.Ready))

	// Registro dinámico de clientes.
	r.Method(http.MethodPost, "/oauth/register", track("/oauth/register", d.Register.Register))

	// Flujo de autorización. El GET muestra el consent; el POST decide.
	// Solo el POST se limita: es el que consume credenciales.
	r.Method(http.MethodGet, "/oauth/authorize", track("/oauth/authorize", d.Authorize.Authorize))
	r.Method(http.MethodPost, "/oauth/authorize",
		limited(d.AuthorizeLimiter, mw.IPRateKey, track("/oauth/authorize", d.Authorize.Decide)))

	// Token endpoint: rate limit por client_id (o IP) y Cache-Control no-store.
	r.Method(http.MethodPost, "/oauth/token",
		limited(d.TokenLimiter, mw.OAuthRateKey,
			mw.Chain(track("/oauth/token", d.Token.Token), mw.WithNoStore())))

	r.Method(http.MethodPost, "/oauth/revoke",
		limited(d.TokenLimiter, mw.OAuthRateKey, track("/oauth/revoke", d.Revoke.Revoke)))

	// Recurso protegido de ejemplo: exige bearer válido con profile:read.
	r.Method(http.MethodGet, "/profile",
		mw.Chain(track("/profile", d.Profile.Profile),
			mw.RequireAuth(d.Validate),
			mw.RequireScope(repository.ScopeProfileRead),
		))

	return mw.Chain(r,
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.AllowedOrigins),
	)
}

// track instrumenta un handler con métricas usando el patrón de ruta,
// no el path crudo, para acotar la cardinalidad de labels.
func track(pattern string, hf http.HandlerFunc) http.Handler {
	return mw.Chain(hf, mw.WithMetrics(pattern))
}

func limited(l rate.Limiter, key mw.RateKeyFunc, h http.Handler) http.Handler {
	if l == nil {
		return h
	}
	return mw.Chain(h, mw.WithRateLimit(l, key))
}
