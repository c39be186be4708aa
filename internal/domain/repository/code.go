package repository

import (
	"context"
	"time"
)

// AuthorizationCode es un code de un solo uso emitido por el authorize endpoint.
// CodeHash es sha256 base64url del code en claro.
type AuthorizationCode struct {
	ID                  string
	CodeHash            string
	ClientID            string
	UserID              string
	RedirectURI         string
	Scopes              []Scope
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	Used                bool
	ExpiresAt           time.Time
	CreatedAt           time.Time
}

// Expired evalúa expiración perezosa contra now.
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CodeRepository persiste authorization codes.
type CodeRepository interface {
	// Create inserta un code con Used=false.
	Create(ctx context.Context, c *AuthorizationCode) error

	// GetByHash retorna el code (usado o no) o ErrNotFound.
	GetByHash(ctx context.Context, codeHash string) (*AuthorizationCode, error)

	// Consume marca el code como usado de forma atómica y lo retorna.
	//
	// Bajo concurrencia exactamente UNA llamada gana; las demás reciben
	// ErrCodeUsed. Un code expirado retorna ErrExpired sin consumirse,
	// uno inexistente ErrNotFound.
	Consume(ctx context.Context, codeHash string, now time.Time) (*AuthorizationCode, error)
}
