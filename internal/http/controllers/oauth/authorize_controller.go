package oauth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	svc "github.com/damont/track/internal/http/services/oauth"
	"github.com/damont/track/internal/observability/logger"
	"github.com/damont/track/internal/security/sessionjwt"
)

// AuthorizeDeps configura la sesión first-party del consent.
type AuthorizeDeps struct {
	Session      *sessionjwt.Issuer
	CookieName   string
	CookieSecure bool
	SameSite     string
	SessionTTL   time.Duration
}

// AuthorizeController handles GET and POST /oauth/authorize.
type AuthorizeController struct {
	service svc.AuthorizeService
	deps    AuthorizeDeps
}

func NewAuthorizeController(s svc.AuthorizeService, d AuthorizeDeps) *AuthorizeController {
	if d.CookieName == "" {
		d.CookieName = "track_session"
	}
	return &AuthorizeController{service: s, deps: d}
}

func queryFromRequest(get func(string) string) svc.AuthorizeQuery {
	return svc.AuthorizeQuery{
		ResponseType:        strings.TrimSpace(get("response_type")),
		ClientID:            strings.TrimSpace(get("client_id")),
		RedirectURI:         strings.TrimSpace(get("redirect_uri")),
		Scope:               strings.TrimSpace(get("scope")),
		State:               get("state"),
		CodeChallenge:       strings.TrimSpace(get("code_challenge")),
		CodeChallengeMethod: strings.TrimSpace(get("code_challenge_method")),
	}
}

// Authorize renders the consent page for a valid authorization request.
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := queryFromRequest(r.URL.Query().Get)

	data, err := c.service.Prepare(ctx, q)
	if err != nil {
		c.handleFlowError(ctx, w, err)
		return
	}

	sessionUser := c.sessionUserID(r)
	renderConsent(w, consentView{
		ClientName: data.Client.Name,
		Scopes:     data.Scopes,
		Query:      data.Query,
		LoggedIn:   sessionUser != "",
	})
}

// Decide processes the consent form submit.
func (c *AuthorizeController) Decide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.authorize"))

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		renderErrorPage(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	d := svc.AuthorizeDecision{
		AuthorizeQuery: queryFromRequest(r.PostForm.Get),
		Approve:        r.PostForm.Get("action") == "approve",
		Email:          strings.TrimSpace(r.PostForm.Get("email")),
		Password:       r.PostForm.Get("password"),
		SessionUserID:  c.sessionUserID(r),
	}

	res, err := c.service.Decide(ctx, d)
	if err != nil {
		c.handleFlowError(ctx, w, err)
		return
	}

	// Sesión para que el próximo authorize no pida credenciales.
	c.setSessionCookie(w, r, res.UserID)
	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}

// handleFlowError separa los dos modos de fallo del authorize endpoint:
// 400 directo antes de validar el redirect URI, redirect con error después.
func (c *AuthorizeController) handleFlowError(ctx context.Context, w http.ResponseWriter, err error) {
	var direct *svc.DirectError
	if errors.As(err, &direct) {
		renderErrorPage(w, http.StatusBadRequest, direct.Reason)
		return
	}
	var redir *svc.RedirectError
	if errors.As(err, &redir) {
		w.Header().Set("Location", redir.Location())
		w.WriteHeader(http.StatusFound)
		return
	}
	logger.From(ctx).Error("authorize endpoint error", logger.Err(err))
	renderErrorPage(w, http.StatusInternalServerError, "An unexpected error occurred")
}

// sessionUserID retorna el userID de la cookie de sesión, o "".
func (c *AuthorizeController) sessionUserID(r *http.Request) string {
	if c.deps.Session == nil {
		return ""
	}
	ck, err := r.Cookie(c.deps.CookieName)
	if err != nil || ck.Value == "" {
		return ""
	}
	uid, err := c.deps.Session.Verify(ck.Value)
	if err != nil {
		return ""
	}
	return uid
}

func (c *AuthorizeController) setSessionCookie(w http.ResponseWriter, r *http.Request, userID string) {
	if c.deps.Session == nil || userID == "" {
		return
	}
	tok, err := c.deps.Session.Mint(userID)
	if err != nil {
		logger.From(r.Context()).Warn("failed to mint session token", logger.Err(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.deps.CookieName,
		Value:    tok,
		Path:     "/oauth",
		MaxAge:   int(c.deps.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.deps.CookieSecure,
		SameSite: parseSameSite(c.deps.SameSite),
	})
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
