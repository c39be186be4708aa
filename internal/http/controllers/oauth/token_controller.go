package oauth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	svc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/observability/logger"
)

// TokenController handles POST /oauth/token.
type TokenController struct {
	service svc.TokenService
}

func NewTokenController(s svc.TokenService) *TokenController {
	return &TokenController{service: s}
}

// Token implements the token endpoint: authorization_code and refresh_token.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.token"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeOAuthError(w, http.StatusMethodNotAllowed, "invalid_request", "Only POST method is allowed")
		return
	}

	// Limit body size (64KB for OAuth forms)
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Invalid form data")
		return
	}

	clientID, clientSecret, basicAuth := clientCredentials(r)
	grantType := strings.TrimSpace(r.PostForm.Get("grant_type"))
	log = log.With(logger.GrantType(grantType))

	var resp *svc.TokenResponse
	var err error

	switch grantType {
	case "authorization_code":
		resp, err = c.service.ExchangeAuthorizationCode(ctx, svc.AuthCodeRequest{
			Code:         strings.TrimSpace(r.PostForm.Get("code")),
			RedirectURI:  strings.TrimSpace(r.PostForm.Get("redirect_uri")),
			ClientID:     clientID,
			ClientSecret: clientSecret,
			CodeVerifier: strings.TrimSpace(r.PostForm.Get("code_verifier")),
		})

	case "refresh_token":
		resp, err = c.service.ExchangeRefreshToken(ctx, svc.RefreshRequest{
			RefreshToken: strings.TrimSpace(r.PostForm.Get("refresh_token")),
			ClientID:     clientID,
			ClientSecret: clientSecret,
		})

	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "Grant type not supported")
		return
	}

	if err != nil {
		c.handleServiceError(ctx, w, err, basicAuth)
		return
	}

	writeTokenResponse(w, resp)
}

// clientCredentials saca las credenciales del form o de HTTP Basic.
// Basic tiene precedencia, como pide RFC 6749 §2.3.1.
func clientCredentials(r *http.Request) (id, secret string, basic bool) {
	if u, p, ok := r.BasicAuth(); ok {
		return u, p, true
	}
	return strings.TrimSpace(r.PostForm.Get("client_id")),
		strings.TrimSpace(r.PostForm.Get("client_secret")),
		false
}

func (c *TokenController) handleServiceError(ctx context.Context, w http.ResponseWriter, err error, basicAuth bool) {
	var oerr *svc.Error
	if errors.As(err, &oerr) {
		if oerr.Code == "invalid_client" && basicAuth {
			w.Header().Set("WWW-Authenticate", `Basic realm="oauth"`)
		}
		writeOAuthError(w, oerr.Status, oerr.Code, oerr.Description)
		return
	}
	logger.From(ctx).Error("token endpoint error", logger.Err(err))
	writeOAuthError(w, http.StatusInternalServerError, "server_error", "An unexpected error occurred")
}

func writeOAuthError(w http.ResponseWriter, status int, errorCode, description string) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errorCode + `","error_description":"` + description + `"}`))
}

func writeTokenResponse(w http.ResponseWriter, resp *svc.TokenResponse) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	// Build JSON manually for control over optional fields
	out := `{"access_token":"` + resp.AccessToken + `","token_type":"` + resp.TokenType + `","expires_in":` + itoa(resp.ExpiresIn)
	if resp.RefreshToken != "" {
		out += `,"refresh_token":"` + resp.RefreshToken + `"`
	}
	if resp.Scope != "" {
		out += `,"scope":"` + resp.Scope + `"`
	}
	out += `}`
	_, _ = w.Write([]byte(out))
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
