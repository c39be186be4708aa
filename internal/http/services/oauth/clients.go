package oauth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/damont/track/internal/cache"
	"github.com/damont/track/internal/domain/repository"
	tokens "github.com/damont/track/internal/security/token"
	"github.com/damont/track/internal/store"
)

// clientLoader resuelve clientes con un cache read-through adelante del store.
// Los clientes son casi inmutables, así que un TTL corto alcanza.
type clientLoader struct {
	store store.Store
	cache cache.Cache
	ttl   time.Duration
}

func clientCacheKey(id string) string { return "oauth:client:" + id }

func (l *clientLoader) get(ctx context.Context, id string) (*repository.Client, error) {
	if l.cache != nil {
		if b, ok := l.cache.Get(clientCacheKey(id)); ok {
			var c repository.Client
			if err := json.Unmarshal(b, &c); err == nil {
				return &c, nil
			}
			l.cache.Delete(clientCacheKey(id))
		}
	}

	c, err := l.store.Clients().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if b, err := json.Marshal(c); err == nil {
			l.cache.Set(clientCacheKey(c.ID), b, l.ttl)
		}
	}
	return c, nil
}

// verifySecret compara sha256(secret) contra el hash guardado en tiempo constante.
func (l *clientLoader) verifySecret(c *repository.Client, secret string) bool {
	if secret == "" {
		return false
	}
	return tokens.ConstantTimeEquals(tokens.SHA256Base64URL(secret), c.SecretHash)
}
