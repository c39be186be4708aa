// Package memory adapta patrickmn/go-cache a la interfaz cache.Cache.
package memory

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/damont/track/internal/cache"
)

type Mem struct{ c *gocache.Cache }

// New crea el cache en memoria. go-cache barre entradas vencidas cada minuto;
// la expiración igual se chequea en cada Get, el barrido solo libera memoria.
func New(defaultTTL time.Duration) cache.Cache {
	return &Mem{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Mem) Get(k string) ([]byte, bool) {
	v, ok := m.c.Get(k)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Mem) Set(k string, v []byte, ttl time.Duration) { m.c.Set(k, v, ttl) }
func (m *Mem) Delete(k string)                           { m.c.Delete(k) }
