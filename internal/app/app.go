// Package app cablea configuración, storage, cache, services y router
// en un handler HTTP listo para servir.
package app

import (
	"fmt"
	"net/http"

	rdb "github.com/redis/go-redis/v9"

	"github.com/damont/track/internal/cache"
	memcache "github.com/damont/track/internal/cache/memory"
	redcache "github.com/damont/track/internal/cache/redis"
	"github.com/damont/track/internal/config"
	healthctrl "github.com/damont/track/internal/http/controllers/health"
	oauthctrl "github.com/damont/track/internal/http/controllers/oauth"
	profilectrl "github.com/damont/track/internal/http/controllers/profile"
	"github.com/damont/track/internal/http/router"
	oauthsvc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/rate"
	"github.com/damont/track/internal/security/sessionjwt"
	"github.com/damont/track/internal/store"
)

// App es la aplicación cableada.
type App struct {
	Handler http.Handler
}

// New construye la aplicación a partir de la config y el store abierto.
func New(cfg *config.Config, st store.Store) (*App, error) {
	c, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	session := sessionjwt.New(cfg.Session.Secret, cfg.OAuth.Issuer, cfg.SessionTTL())

	services := oauthsvc.New(oauthsvc.Deps{
		Store:      st,
		Cache:      c,
		CacheTTL:   cfg.CacheDefaultTTL(),
		CodeTTL:    cfg.CodeTTL(),
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	})

	tokenLimiter, authorizeLimiter := buildLimiters(cfg)

	handler := router.New(router.Deps{
		Register: oauthctrl.NewRegisterController(services.Register),
		Authorize: oauthctrl.NewAuthorizeController(services.Authorize, oauthctrl.AuthorizeDeps{
			Session:      session,
			CookieName:   cfg.Session.CookieName,
			CookieSecure: cfg.Session.Secure,
			SameSite:     cfg.Session.SameSite,
			SessionTTL:   cfg.SessionTTL(),
		}),
		Token:            oauthctrl.NewTokenController(services.Token),
		Revoke:           oauthctrl.NewRevokeController(services.Revoke),
		Profile:          profilectrl.NewController(),
		Health:           healthctrl.NewController(st),
		Validate:         services.Validate,
		TokenLimiter:     tokenLimiter,
		AuthorizeLimiter: authorizeLimiter,
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
	})

	return &App{Handler: handler}, nil
}

func buildCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Kind {
	case "", "memory":
		return memcache.New(cfg.CacheDefaultTTL()), nil
	case "redis":
		return redcache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", cfg.Cache.Kind)
	}
}

// buildLimiters elige el backend según el cache configurado: con redis los
// contadores se comparten entre réplicas, en memoria son por proceso.
func buildLimiters(cfg *config.Config) (rate.Limiter, rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	if cfg.Cache.Kind == "redis" {
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
		return rate.NewRedisLimiter(client, "rl:token", cfg.Rate.Token.Limit, cfg.RateTokenWindow()),
			rate.NewRedisLimiter(client, "rl:authz", cfg.Rate.Authorize.Limit, cfg.RateAuthorizeWindow())
	}
	return rate.NewMemoryLimiter(cfg.Rate.Token.Limit, cfg.RateTokenWindow()),
		rate.NewMemoryLimiter(cfg.Rate.Authorize.Limit, cfg.RateAuthorizeWindow())
}
