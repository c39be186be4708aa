package repository

import (
	"context"
	"time"
)

// AccessToken es un bearer token opaco. TokenHash es sha256 base64url.
type AccessToken struct {
	ID         string
	TokenHash  string
	ClientID   string
	UserID     string
	Scopes     []Scope
	Revoked    bool
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// Valid evalúa revocación y expiración perezosa contra now.
func (t *AccessToken) Valid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// RefreshToken referencia al access token vigente vía AccessTokenID.
// El string del refresh no rota: en cada refresh se re-apunta AccessTokenID.
type RefreshToken struct {
	ID            string
	TokenHash     string
	ClientID      string
	UserID        string
	Scopes        []Scope
	AccessTokenID string
	Revoked       bool
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Valid evalúa revocación y expiración perezosa contra now.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// AccessTokenRepository persiste access tokens.
type AccessTokenRepository interface {
	Create(ctx context.Context, t *AccessToken) error

	// GetByHash retorna el token (válido o no) o ErrNotFound.
	GetByHash(ctx context.Context, tokenHash string) (*AccessToken, error)

	// Revoke marca el token como revocado. Idempotente.
	// ErrNotFound si el hash no existe.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeByID revoca por ID (cascada desde refresh). Idempotente.
	RevokeByID(ctx context.Context, id string) error

	// Touch actualiza LastUsedAt. Best effort en el hot path.
	Touch(ctx context.Context, id string, at time.Time) error
}

// RefreshTokenRepository persiste refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error

	// GetByHash retorna el token (válido o no) o ErrNotFound.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Revoke marca el token como revocado. Idempotente.
	Revoke(ctx context.Context, tokenHash string) error

	// SetAccessTokenID re-apunta el refresh a un access token nuevo.
	SetAccessTokenID(ctx context.Context, id, accessTokenID string) error
}
