package oauth

import (
	"context"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/metrics"
	"github.com/damont/track/internal/observability/logger"
	tokens "github.com/damont/track/internal/security/token"
)

// RevokeService implementa POST /oauth/revoke.
//
// Semántica RFC 7009: la respuesta es 200 tanto si el token existía como si
// no, y repetir la revocación también es 200. Solo errores de infraestructura
// devuelven error.
type RevokeService interface {
	Revoke(ctx context.Context, token string) error
}

type revokeService struct {
	deps Deps
}

func (s *revokeService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.revoke"))
	hash := tokens.SHA256Base64URL(token)

	// Primero access token.
	err := s.deps.Store.AccessTokens().Revoke(ctx, hash)
	if err == nil {
		metrics.TokensRevoked.Inc()
		log.Info("access token revoked")
		return nil
	}
	if !repository.IsNotFound(err) {
		return err
	}

	// Después refresh token, con cascada al access vinculado.
	refresh, err := s.deps.Store.RefreshTokens().GetByHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			// Token desconocido: misma respuesta que un revoke exitoso.
			return nil
		}
		return err
	}
	if err := s.deps.Store.RefreshTokens().Revoke(ctx, hash); err != nil && !repository.IsNotFound(err) {
		return err
	}
	if refresh.AccessTokenID != "" {
		if err := s.deps.Store.AccessTokens().RevokeByID(ctx, refresh.AccessTokenID); err != nil && !repository.IsNotFound(err) {
			return err
		}
	}
	metrics.TokensRevoked.Inc()
	log.Info("refresh token revoked", logger.TokenID(refresh.ID))
	return nil
}
