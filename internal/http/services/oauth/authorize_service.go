package oauth

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/metrics"
	"github.com/damont/track/internal/observability/logger"
	"github.com/damont/track/internal/security/password"
	tokens "github.com/damont/track/internal/security/token"
)

// AuthorizeQuery son los parámetros de GET /oauth/authorize.
type AuthorizeQuery struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeDecision es el submit del consent (POST /oauth/authorize).
type AuthorizeDecision struct {
	AuthorizeQuery
	Approve bool

	// Credenciales del form, o SessionUserID si había cookie de sesión válida.
	Email         string
	Password      string
	SessionUserID string
}

// ConsentData alimenta el render de la pantalla de consent.
type ConsentData struct {
	Client *repository.Client
	Scopes []repository.Scope
	Query  AuthorizeQuery
}

// AuthorizeResult es una decisión exitosa: a dónde redirigir y quién aprobó.
type AuthorizeResult struct {
	RedirectURL string
	UserID      string
}

// DirectError corta el flujo ANTES de validar el redirect URI: se responde
// 400 directo, jamás un redirect a una URI no verificada.
type DirectError struct {
	Reason string
}

func (e *DirectError) Error() string { return e.Reason }

// RedirectError ocurre DESPUÉS de validar client y redirect URI: el error
// viaja como query params a la URI verificada.
type RedirectError struct {
	RedirectURI string
	Code        string
	Description string
	State       string
}

func (e *RedirectError) Error() string { return e.Code + ": " + e.Description }

// Location construye la URL de redirección con error, error_description y state.
func (e *RedirectError) Location() string {
	q := url.Values{}
	q.Set("error", e.Code)
	if e.Description != "" {
		q.Set("error_description", e.Description)
	}
	if e.State != "" {
		q.Set("state", e.State)
	}
	return appendQuery(e.RedirectURI, q)
}

// appendQuery agrega params respetando un query string preexistente.
func appendQuery(uri string, q url.Values) string {
	if strings.Contains(uri, "?") {
		return uri + "&" + q.Encode()
	}
	return uri + "?" + q.Encode()
}

// AuthorizeService maneja el authorization endpoint.
type AuthorizeService interface {
	// Prepare valida la query del GET y retorna los datos del consent.
	// Errores: *DirectError (400 directo) o *RedirectError.
	Prepare(ctx context.Context, q AuthorizeQuery) (*ConsentData, error)

	// Decide procesa el submit del consent y retorna la URL de redirección.
	// Errores: *DirectError o *RedirectError.
	Decide(ctx context.Context, d AuthorizeDecision) (*AuthorizeResult, error)
}

type authorizeService struct {
	deps   Deps
	loader *clientLoader
}

// validateBase cubre los checks previos a cualquier redirect: cliente
// conocido y redirect URI en la allow-list, por igualdad exacta.
func (s *authorizeService) validateBase(ctx context.Context, q AuthorizeQuery) (*repository.Client, error) {
	if strings.TrimSpace(q.ClientID) == "" {
		return nil, &DirectError{Reason: "Missing client_id"}
	}
	client, err := s.loader.get(ctx, q.ClientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &DirectError{Reason: "Unknown client"}
		}
		return nil, err
	}
	if !client.Active {
		return nil, &DirectError{Reason: "Client is disabled"}
	}
	if strings.TrimSpace(q.RedirectURI) == "" {
		return nil, &DirectError{Reason: "Missing redirect_uri"}
	}
	if !client.HasRedirectURI(q.RedirectURI) {
		return nil, &DirectError{Reason: "Invalid redirect_uri"}
	}
	return client, nil
}

func (s *authorizeService) Prepare(ctx context.Context, q AuthorizeQuery) (*ConsentData, error) {
	client, err := s.validateBase(ctx, q)
	if err != nil {
		return nil, err
	}

	// A partir de acá el redirect URI está verificado: los errores redirigen.
	if q.ResponseType != "code" {
		return nil, &RedirectError{
			RedirectURI: q.RedirectURI,
			Code:        "unsupported_response_type",
			Description: "Only response_type=code is supported",
			State:       q.State,
		}
	}
	if err := validateChallenge(q); err != nil {
		return nil, err
	}

	return &ConsentData{
		Client: client,
		Scopes: repository.ParseScopes(q.Scope),
		Query:  q,
	}, nil
}

func validateChallenge(q AuthorizeQuery) error {
	if q.CodeChallengeMethod != "" && q.CodeChallengeMethod != "plain" && q.CodeChallengeMethod != "S256" {
		return &RedirectError{
			RedirectURI: q.RedirectURI,
			Code:        "invalid_request",
			Description: "Unsupported code_challenge_method",
			State:       q.State,
		}
	}
	if q.CodeChallengeMethod != "" && q.CodeChallenge == "" {
		return &RedirectError{
			RedirectURI: q.RedirectURI,
			Code:        "invalid_request",
			Description: "code_challenge is required with code_challenge_method",
			State:       q.State,
		}
	}
	return nil
}

func (s *authorizeService) Decide(ctx context.Context, d AuthorizeDecision) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("oauth.authorize"))

	// Re-validar TODO: el POST llega con params en campos hidden que el
	// usuario pudo haber manipulado.
	client, err := s.validateBase(ctx, d.AuthorizeQuery)
	if err != nil {
		return nil, err
	}
	if d.ResponseType != "code" {
		return nil, &RedirectError{
			RedirectURI: d.RedirectURI,
			Code:        "unsupported_response_type",
			Description: "Only response_type=code is supported",
			State:       d.State,
		}
	}
	if err := validateChallenge(d.AuthorizeQuery); err != nil {
		return nil, err
	}

	denied := func(desc string) error {
		return &RedirectError{
			RedirectURI: d.RedirectURI,
			Code:        "access_denied",
			Description: desc,
			State:       d.State,
		}
	}

	if !d.Approve {
		return nil, denied("User denied access")
	}

	user, err := s.authenticate(ctx, d)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, denied("Account disabled")
	}

	// Mintear el code: opaco en el wire, hash en el store.
	code, err := tokens.GenerateOpaqueToken(tokens.CodeBytes)
	if err != nil {
		return nil, serverError()
	}
	now := s.deps.Now()
	method := d.CodeChallengeMethod
	if d.CodeChallenge != "" && method == "" {
		method = "plain"
	}
	rec := &repository.AuthorizationCode{
		ID:                  uuid.NewString(),
		CodeHash:            tokens.SHA256Base64URL(code),
		ClientID:            client.ID,
		UserID:              user.ID,
		RedirectURI:         d.RedirectURI,
		Scopes:              repository.ParseScopes(d.Scope),
		State:               d.State,
		CodeChallenge:       d.CodeChallenge,
		CodeChallengeMethod: method,
		Used:                false,
		ExpiresAt:           now.Add(s.deps.CodeTTL),
		CreatedAt:           now,
	}
	if err := s.deps.Store.Codes().Create(ctx, rec); err != nil {
		log.Error("failed to persist authorization code", logger.Err(err))
		return nil, serverError()
	}
	metrics.CodesIssued.Inc()

	q := url.Values{}
	q.Set("code", code)
	if d.State != "" {
		q.Set("state", d.State)
	}

	log.Info("authorization code issued",
		logger.ClientID(client.ID),
		logger.UserID(user.ID),
		logger.Scope(repository.FormatScopes(rec.Scopes)),
	)

	return &AuthorizeResult{
		RedirectURL: appendQuery(d.RedirectURI, q),
		UserID:      user.ID,
	}, nil
}

// authenticate resuelve el usuario: sesión vigente o credenciales del form.
// Cualquier fallo de credenciales es el mismo redirect para no filtrar si el
// email existe.
func (s *authorizeService) authenticate(ctx context.Context, d AuthorizeDecision) (*repository.User, error) {
	invalidCreds := &RedirectError{
		RedirectURI: d.RedirectURI,
		Code:        "access_denied",
		Description: "Invalid credentials",
		State:       d.State,
	}

	if d.SessionUserID != "" {
		user, err := s.deps.Store.Users().GetByID(ctx, d.SessionUserID)
		if err != nil {
			return nil, invalidCreds
		}
		return user, nil
	}

	if d.Email == "" || d.Password == "" {
		return nil, invalidCreds
	}
	user, err := s.deps.Store.Users().GetByEmail(ctx, d.Email)
	if err != nil {
		return nil, invalidCreds
	}
	if !password.Verify(d.Password, user.PasswordHash) {
		return nil, invalidCreds
	}
	return user, nil
}
