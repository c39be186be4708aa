// Package memory implementa store.Store en memoria.
//
// Pensado para desarrollo y tests. Cada repo protege su mapa con un RWMutex;
// Consume toma el write lock para garantizar un único ganador bajo concurrencia.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/store"
)

func init() {
	store.Register(driver{})
}

type driver struct{}

func (driver) Name() string { return "memory" }

func (driver) Open(_ context.Context, _ store.Config) (store.Store, error) {
	return New(), nil
}

// Mem implementa store.Store en memoria.
type Mem struct {
	clients  clientRepo
	codes    codeRepo
	access   accessTokenRepo
	refresh  refreshTokenRepo
	users    userRepo
}

// New crea un store vacío.
func New() *Mem {
	return &Mem{
		clients: clientRepo{byID: map[string]*repository.Client{}},
		codes:   codeRepo{byHash: map[string]*repository.AuthorizationCode{}},
		access: accessTokenRepo{
			byHash: map[string]*repository.AccessToken{},
			byID:   map[string]*repository.AccessToken{},
		},
		refresh: refreshTokenRepo{byHash: map[string]*repository.RefreshToken{}, byID: map[string]*repository.RefreshToken{}},
		users:   userRepo{byID: map[string]*repository.User{}, byEmail: map[string]*repository.User{}},
	}
}

func (m *Mem) Clients() repository.ClientRepository            { return &m.clients }
func (m *Mem) Codes() repository.CodeRepository                { return &m.codes }
func (m *Mem) AccessTokens() repository.AccessTokenRepository  { return &m.access }
func (m *Mem) RefreshTokens() repository.RefreshTokenRepository { return &m.refresh }
func (m *Mem) Users() repository.UserRepository                { return &m.users }

func (m *Mem) Ping(context.Context) error { return nil }
func (m *Mem) Close() error               { return nil }

// ---- clients ----

type clientRepo struct {
	mu   sync.RWMutex
	byID map[string]*repository.Client
}

func (r *clientRepo) Create(_ context.Context, c *repository.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; exists {
		return repository.ErrConflict
	}
	cp := cloneClient(c)
	r.byID[c.ID] = cp
	return nil
}

func (r *clientRepo) GetByID(_ context.Context, id string) (*repository.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneClient(c), nil
}

// ---- authorization codes ----

type codeRepo struct {
	mu     sync.Mutex
	byHash map[string]*repository.AuthorizationCode
}

func (r *codeRepo) Create(_ context.Context, c *repository.AuthorizationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[c.CodeHash]; exists {
		return repository.ErrConflict
	}
	r.byHash[c.CodeHash] = cloneCode(c)
	return nil
}

func (r *codeRepo) GetByHash(_ context.Context, codeHash string) (*repository.AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byHash[codeHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneCode(c), nil
}

// Consume marca el code como usado bajo el lock de escritura: exactamente una
// goroutine concurrente puede pasar el check Used=false.
func (r *codeRepo) Consume(_ context.Context, codeHash string, now time.Time) (*repository.AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byHash[codeHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c.Used {
		return nil, repository.ErrCodeUsed
	}
	if c.Expired(now) {
		return nil, repository.ErrExpired
	}
	c.Used = true
	return cloneCode(c), nil
}

// ---- access tokens ----

type accessTokenRepo struct {
	mu     sync.RWMutex
	byHash map[string]*repository.AccessToken
	byID   map[string]*repository.AccessToken
}

func (r *accessTokenRepo) Create(_ context.Context, t *repository.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[t.TokenHash]; exists {
		return repository.ErrConflict
	}
	cp := cloneAccess(t)
	r.byHash[t.TokenHash] = cp
	r.byID[t.ID] = cp
	return nil
}

func (r *accessTokenRepo) GetByHash(_ context.Context, tokenHash string) (*repository.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byHash[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAccess(t), nil
}

func (r *accessTokenRepo) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byHash[tokenHash]
	if !ok {
		return repository.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (r *accessTokenRepo) RevokeByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (r *accessTokenRepo) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	ts := at
	t.LastUsedAt = &ts
	return nil
}

// ---- refresh tokens ----

type refreshTokenRepo struct {
	mu     sync.RWMutex
	byHash map[string]*repository.RefreshToken
	byID   map[string]*repository.RefreshToken
}

func (r *refreshTokenRepo) Create(_ context.Context, t *repository.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[t.TokenHash]; exists {
		return repository.ErrConflict
	}
	cp := cloneRefresh(t)
	r.byHash[t.TokenHash] = cp
	r.byID[t.ID] = cp
	return nil
}

func (r *refreshTokenRepo) GetByHash(_ context.Context, tokenHash string) (*repository.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byHash[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRefresh(t), nil
}

func (r *refreshTokenRepo) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byHash[tokenHash]
	if !ok {
		return repository.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (r *refreshTokenRepo) SetAccessTokenID(_ context.Context, id, accessTokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.AccessTokenID = accessTokenID
	return nil
}

// ---- users ----

type userRepo struct {
	mu      sync.RWMutex
	byID    map[string]*repository.User
	byEmail map[string]*repository.User
}

func (r *userRepo) Create(_ context.Context, u *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, exists := r.byEmail[key]; exists {
		return repository.ErrConflict
	}
	cp := cloneUser(u)
	r.byID[u.ID] = cp
	r.byEmail[key] = cp
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

// ---- clones ----
// Los repos devuelven copias para que el caller no pueda mutar el estado interno.

func cloneClient(c *repository.Client) *repository.Client {
	cp := *c
	cp.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	cp.AllowedScopes = append([]repository.Scope(nil), c.AllowedScopes...)
	return &cp
}

func cloneCode(c *repository.AuthorizationCode) *repository.AuthorizationCode {
	cp := *c
	cp.Scopes = append([]repository.Scope(nil), c.Scopes...)
	return &cp
}

func cloneAccess(t *repository.AccessToken) *repository.AccessToken {
	cp := *t
	cp.Scopes = append([]repository.Scope(nil), t.Scopes...)
	if t.LastUsedAt != nil {
		ts := *t.LastUsedAt
		cp.LastUsedAt = &ts
	}
	return &cp
}

func cloneRefresh(t *repository.RefreshToken) *repository.RefreshToken {
	cp := *t
	cp.Scopes = append([]repository.Scope(nil), t.Scopes...)
	return &cp
}

func cloneUser(u *repository.User) *repository.User {
	cp := *u
	return &cp
}
