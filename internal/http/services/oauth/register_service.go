package oauth

import (
	"context"
	"net/url"
	"strings"

	"github.com/damont/track/internal/domain/repository"
	httperrors "github.com/damont/track/internal/http/errors"
	"github.com/damont/track/internal/observability/logger"
	tokens "github.com/damont/track/internal/security/token"
)

// RegisterRequest es el payload de POST /oauth/register.
type RegisterRequest struct {
	Name         string
	Description  string
	RedirectURIs []string
	Scope        string
}

// RegisterResponse incluye el client secret EN CLARO. Solo existe acá:
// después del registro no hay forma de recuperarlo.
type RegisterResponse struct {
	ClientID     string
	ClientSecret string
	Name         string
	Description  string
	RedirectURIs []string
	Scope        string
}

// RegisterService da de alta clientes OAuth.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type registerService struct {
	deps   Deps
	loader *clientLoader
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.register"))

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, httperrors.ErrBadRequest.WithDetail("name is required")
	}
	if len(req.RedirectURIs) == 0 {
		return nil, httperrors.ErrBadRequest.WithDetail("at least one redirect_uri is required")
	}
	uris := make([]string, 0, len(req.RedirectURIs))
	for _, raw := range req.RedirectURIs {
		u := strings.TrimSpace(raw)
		if !validRedirectURI(u) {
			return nil, httperrors.ErrBadRequest.WithDetail("invalid redirect_uri: " + raw)
		}
		uris = append(uris, u)
	}

	scopes := repository.ParseScopes(req.Scope)

	clientID, err := tokens.GenerateClientID()
	if err != nil {
		return nil, httperrors.ErrInternalServerError.WithCause(err)
	}
	secret, err := tokens.GenerateOpaqueToken(tokens.ClientSecretBytes)
	if err != nil {
		return nil, httperrors.ErrInternalServerError.WithCause(err)
	}

	now := s.deps.Now()
	client := &repository.Client{
		ID:            clientID,
		SecretHash:    tokens.SHA256Base64URL(secret),
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		RedirectURIs:  uris,
		AllowedScopes: scopes,
		Active:        true,
		OwnerID:       "system",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.deps.Store.Clients().Create(ctx, client); err != nil {
		return nil, httperrors.ErrInternalServerError.WithCause(err)
	}

	log.Info("client registered", logger.ClientID(clientID), logger.Count(len(uris)))

	return &RegisterResponse{
		ClientID:     clientID,
		ClientSecret: secret,
		Name:         name,
		Description:  client.Description,
		RedirectURIs: uris,
		Scope:        repository.FormatScopes(scopes),
	}, nil
}

// validRedirectURI exige URI absoluta http(s) sin fragment.
func validRedirectURI(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != "" && u.Fragment == ""
}
