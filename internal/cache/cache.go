// Package cache provee un cache de bytes con backends memory y redis.
//
// En Track se usa para memoizar lookups de clientes OAuth en el hot path de
// authorize/token. Nunca se cachean tokens ni codes: esos viven solo en el
// store, que es la fuente de verdad para revocación y single-use.
package cache

import "time"

// Cache es un cache simple de bytes con TTL por entrada.
type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
