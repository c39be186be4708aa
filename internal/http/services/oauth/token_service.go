package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/metrics"
	"github.com/damont/track/internal/observability/logger"
	tokens "github.com/damont/track/internal/security/token"
)

// AuthCodeRequest es el grant authorization_code.
type AuthCodeRequest struct {
	Code         string
	RedirectURI  string
	ClientID     string
	ClientSecret string
	CodeVerifier string
}

// RefreshRequest es el grant refresh_token.
type RefreshRequest struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// TokenResponse es la respuesta 200 del token endpoint.
type TokenResponse struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64
	RefreshToken string
	Scope        string
}

// TokenService implementa el token endpoint.
type TokenService interface {
	ExchangeAuthorizationCode(ctx context.Context, req AuthCodeRequest) (*TokenResponse, error)
	ExchangeRefreshToken(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
}

type tokenService struct {
	deps   Deps
	loader *clientLoader
}

// ExchangeAuthorizationCode canjea un code por un par access/refresh.
//
// El orden de validación es contractual: los checks del code van ANTES de la
// autenticación del cliente, y el consumo atómico del code va al final, justo
// antes de mintear. Un atacante sin el secret correcto no quema el code de
// la víctima.
func (s *tokenService) ExchangeAuthorizationCode(ctx context.Context, req AuthCodeRequest) (*TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token"), logger.GrantType("authorization_code"))
	now := s.deps.Now()

	// 1. Parámetros mínimos. Este grant es para clientes confidenciales:
	// las credenciales completas son parte de la forma del request.
	if req.Code == "" {
		return nil, invalidRequest("code is required")
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		return nil, invalidRequest("client credentials are required")
	}

	// 2-4. Lookup y estado del code.
	codeHash := tokens.SHA256Base64URL(req.Code)
	code, err := s.deps.Store.Codes().GetByHash(ctx, codeHash)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, invalidGrant("Invalid authorization code")
		}
		log.Error("code lookup failed", logger.Err(err))
		return nil, serverError()
	}
	if code.Used {
		return nil, invalidGrant("Authorization code already used")
	}
	if code.Expired(now) {
		return nil, invalidGrant("Authorization code expired")
	}

	// 5-6. Binding al cliente y redirect URI.
	if code.ClientID != req.ClientID {
		return nil, invalidGrant("Authorization code was issued to another client")
	}
	if req.RedirectURI != "" && req.RedirectURI != code.RedirectURI {
		return nil, invalidGrant("Redirect URI mismatch")
	}

	// 7. Autenticación del cliente.
	client, err := s.loader.get(ctx, req.ClientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, invalidClient("Client authentication failed")
		}
		log.Error("client lookup failed", logger.Err(err))
		return nil, serverError()
	}
	if !client.Active || !s.loader.verifySecret(client, req.ClientSecret) {
		return nil, invalidClient("Client authentication failed")
	}

	// 8. PKCE, si el code lleva challenge.
	if code.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			return nil, invalidRequest("code_verifier is required")
		}
		if !verifyPKCE(code.CodeChallenge, code.CodeChallengeMethod, req.CodeVerifier) {
			return nil, invalidGrant("PKCE verification failed")
		}
	}

	// 9. Consumo atómico: exactamente un canje gana la carrera.
	consumed, err := s.deps.Store.Codes().Consume(ctx, codeHash, now)
	if err != nil {
		switch {
		case repository.IsCodeUsed(err):
			return nil, invalidGrant("Authorization code already used")
		case repository.IsExpired(err):
			return nil, invalidGrant("Authorization code expired")
		case repository.IsNotFound(err):
			return nil, invalidGrant("Invalid authorization code")
		default:
			log.Error("code consume failed", logger.Err(err))
			return nil, serverError()
		}
	}

	// 10. Mintear el par.
	resp, err := s.mintPair(ctx, consumed.ClientID, consumed.UserID, consumed.Scopes)
	if err != nil {
		log.Error("token minting failed", logger.Err(err))
		return nil, serverError()
	}

	metrics.TokensIssued.WithLabelValues("authorization_code").Inc()
	log.Info("tokens issued",
		logger.ClientID(consumed.ClientID),
		logger.UserID(consumed.UserID),
		logger.Scope(resp.Scope),
	)
	return resp, nil
}

// ExchangeRefreshToken emite un access token nuevo SIN rotar el refresh:
// el mismo string sigue vigente, solo se re-apunta access_token_id y se
// revoca el access anterior.
func (s *tokenService) ExchangeRefreshToken(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.token"), logger.GrantType("refresh_token"))
	now := s.deps.Now()

	if req.RefreshToken == "" {
		return nil, invalidRequest("refresh_token is required")
	}

	refreshHash := tokens.SHA256Base64URL(req.RefreshToken)
	refresh, err := s.deps.Store.RefreshTokens().GetByHash(ctx, refreshHash)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, invalidGrant("Invalid refresh token")
		}
		log.Error("refresh token lookup failed", logger.Err(err))
		return nil, serverError()
	}
	if refresh.Revoked {
		return nil, invalidGrant("Refresh token revoked")
	}
	if !now.Before(refresh.ExpiresAt) {
		return nil, invalidGrant("Refresh token expired")
	}

	// Este grant no exige credenciales de cliente: la posesión del refresh
	// token es la prueba (los clientes públicos con PKCE no tienen secret).
	// Si el caller las manda igual, se verifican.
	if req.ClientID != "" && refresh.ClientID != req.ClientID {
		return nil, invalidGrant("Refresh token was issued to another client")
	}
	if req.ClientSecret != "" {
		client, err := s.loader.get(ctx, refresh.ClientID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, invalidClient("Client authentication failed")
			}
			log.Error("client lookup failed", logger.Err(err))
			return nil, serverError()
		}
		if !client.Active || !s.loader.verifySecret(client, req.ClientSecret) {
			return nil, invalidClient("Client authentication failed")
		}
	}

	// Revocar el access anterior. Puede no existir si hubo limpieza manual.
	if refresh.AccessTokenID != "" {
		if err := s.deps.Store.AccessTokens().RevokeByID(ctx, refresh.AccessTokenID); err != nil && !repository.IsNotFound(err) {
			log.Error("failed to revoke previous access token", logger.Err(err))
			return nil, serverError()
		}
	}

	access, plain, err := s.mintAccess(ctx, refresh.ClientID, refresh.UserID, refresh.Scopes)
	if err != nil {
		log.Error("token minting failed", logger.Err(err))
		return nil, serverError()
	}
	if err := s.deps.Store.RefreshTokens().SetAccessTokenID(ctx, refresh.ID, access.ID); err != nil {
		log.Error("failed to repoint refresh token", logger.Err(err))
		return nil, serverError()
	}

	metrics.TokensIssued.WithLabelValues("refresh_token").Inc()
	log.Info("access token refreshed",
		logger.ClientID(refresh.ClientID),
		logger.UserID(refresh.UserID),
	)

	return &TokenResponse{
		AccessToken:  plain,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.deps.AccessTTL.Seconds()),
		RefreshToken: req.RefreshToken,
		Scope:        repository.FormatScopes(refresh.Scopes),
	}, nil
}

// mintAccess crea y persiste un access token; retorna el registro y el string en claro.
func (s *tokenService) mintAccess(ctx context.Context, clientID, userID string, scopes []repository.Scope) (*repository.AccessToken, string, error) {
	plain, err := tokens.GenerateOpaqueToken(tokens.AccessTokenBytes)
	if err != nil {
		return nil, "", err
	}
	now := s.deps.Now()
	access := &repository.AccessToken{
		ID:        uuid.NewString(),
		TokenHash: tokens.SHA256Base64URL(plain),
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: now.Add(s.deps.AccessTTL),
		CreatedAt: now,
	}
	if err := s.deps.Store.AccessTokens().Create(ctx, access); err != nil {
		return nil, "", err
	}
	return access, plain, nil
}

// mintPair crea access + refresh vinculados.
func (s *tokenService) mintPair(ctx context.Context, clientID, userID string, scopes []repository.Scope) (*TokenResponse, error) {
	access, accessPlain, err := s.mintAccess(ctx, clientID, userID, scopes)
	if err != nil {
		return nil, err
	}

	refreshPlain, err := tokens.GenerateOpaqueToken(tokens.RefreshTokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	refresh := &repository.RefreshToken{
		ID:            uuid.NewString(),
		TokenHash:     tokens.SHA256Base64URL(refreshPlain),
		ClientID:      clientID,
		UserID:        userID,
		Scopes:        scopes,
		AccessTokenID: access.ID,
		ExpiresAt:     now.Add(s.deps.RefreshTTL),
		CreatedAt:     now,
	}
	if err := s.deps.Store.RefreshTokens().Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  accessPlain,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.deps.AccessTTL.Seconds()),
		RefreshToken: refreshPlain,
		Scope:        repository.FormatScopes(scopes),
	}, nil
}

// verifyPKCE compara el verifier contra el challenge guardado.
// S256: base64url sin padding de sha256(verifier). plain: igualdad directa.
func verifyPKCE(challenge, method, verifier string) bool {
	switch strings.TrimSpace(method) {
	case "S256":
		sum := sha256.Sum256([]byte(verifier))
		derived := base64.RawURLEncoding.EncodeToString(sum[:])
		return tokens.ConstantTimeEquals(derived, challenge)
	case "plain", "":
		return tokens.ConstantTimeEquals(verifier, challenge)
	default:
		return false
	}
}
