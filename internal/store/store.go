// Package store define el acceso a datos agregado y el registro de drivers.
//
// Los drivers concretos (memory, postgres) se registran vía init(), por eso
// los binarios deben importarlos con blank import:
//
//	_ "github.com/damont/track/internal/store/memory"
//	_ "github.com/damont/track/internal/store/pg"
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/damont/track/internal/domain/repository"
)

// Store agrupa todos los repositorios del dominio.
type Store interface {
	Clients() repository.ClientRepository
	Codes() repository.CodeRepository
	AccessTokens() repository.AccessTokenRepository
	RefreshTokens() repository.RefreshTokenRepository
	Users() repository.UserRepository

	// Ping verifica conectividad con el backend.
	Ping(ctx context.Context) error

	// Close libera conexiones. Idempotente.
	Close() error
}

// Config configura la apertura de un driver.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Driver abre un Store concreto.
type Driver interface {
	Name() string
	Open(ctx context.Context, cfg Config) (Store, error)
}

var (
	driversMu sync.RWMutex
	drivers   = map[string]Driver{}
)

// Register registra un driver. Panic si el nombre está duplicado.
func Register(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	name := strings.ToLower(d.Name())
	if _, dup := drivers[name]; dup {
		panic("store: driver duplicado: " + name)
	}
	drivers[name] = d
}

// Open abre el Store configurado en cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driversMu.RLock()
	d, ok := drivers[strings.ToLower(cfg.Driver)]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: driver %q no registrado (disponibles: %s)",
			cfg.Driver, strings.Join(driverNames(), ", "))
	}
	return d.Open(ctx, cfg)
}

func driverNames() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for n := range drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
