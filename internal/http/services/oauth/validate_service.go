package oauth

import (
	"context"
	"errors"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/observability/logger"
	tokens "github.com/damont/track/internal/security/token"
)

// ErrInvalidToken cubre todo fallo de validación de un access token:
// inexistente, revocado, expirado o de un usuario inactivo. Un solo error
// para no filtrar cuál fue.
var ErrInvalidToken = errors.New("invalid access token")

// Principal es la identidad validada a partir de un access token.
type Principal struct {
	User     *repository.User
	Scopes   []repository.Scope
	TokenID  string
	ClientID string
}

// HasScope indica si el token trae el scope pedido.
func (p *Principal) HasScope(s repository.Scope) bool {
	return repository.HasScope(p.Scopes, s)
}

// ValidateService valida bearer tokens para rutas protegidas.
type ValidateService interface {
	// Validate retorna el Principal o ErrInvalidToken.
	Validate(ctx context.Context, token string) (*Principal, error)
}

type validateService struct {
	deps Deps
}

func (s *validateService) Validate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	now := s.deps.Now()

	access, err := s.deps.Store.AccessTokens().GetByHash(ctx, tokens.SHA256Base64URL(token))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !access.Valid(now) {
		return nil, ErrInvalidToken
	}

	// Best effort: no bloquear el request si el touch falla.
	if err := s.deps.Store.AccessTokens().Touch(ctx, access.ID, now); err != nil {
		logger.From(ctx).Warn("failed to touch access token", logger.TokenID(access.ID), logger.Err(err))
	}

	user, err := s.deps.Store.Users().GetByID(ctx, access.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrInvalidToken
	}

	return &Principal{
		User:     user,
		Scopes:   access.Scopes,
		TokenID:  access.ID,
		ClientID: access.ClientID,
	}, nil
}
