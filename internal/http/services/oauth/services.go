package oauth

import (
	"time"

	"github.com/damont/track/internal/cache"
	"github.com/damont/track/internal/store"
)

// Deps agrupa las dependencias compartidas por los services OAuth.
type Deps struct {
	Store store.Store

	// Cache memoiza lookups de clientes. Opcional (nil = sin cache).
	Cache    cache.Cache
	CacheTTL time.Duration

	CodeTTL    time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now permite fijar el reloj en tests. Default: time.Now.
	Now func() time.Time
}

// Services expone los services OAuth ya cableados.
type Services struct {
	Register  RegisterService
	Authorize AuthorizeService
	Token     TokenService
	Validate  ValidateService
	Revoke    RevokeService
}

// New construye los services con las dependencias dadas.
func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.CodeTTL == 0 {
		d.CodeTTL = 10 * time.Minute
	}
	if d.AccessTTL == 0 {
		d.AccessTTL = time.Hour
	}
	if d.RefreshTTL == 0 {
		d.RefreshTTL = 30 * 24 * time.Hour
	}
	if d.CacheTTL == 0 {
		d.CacheTTL = 2 * time.Minute
	}

	loader := &clientLoader{store: d.Store, cache: d.Cache, ttl: d.CacheTTL}

	return &Services{
		Register:  &registerService{deps: d, loader: loader},
		Authorize: &authorizeService{deps: d, loader: loader},
		Token:     &tokenService{deps: d, loader: loader},
		Validate:  &validateService{deps: d},
		Revoke:    &revokeService{deps: d},
	}
}
