package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/security/password"
	tokens "github.com/damont/track/internal/security/token"
	"github.com/damont/track/internal/store/memory"
)

const (
	testClientSecret = "shhh-client-secret"
	testUserPassword = "hunter2hunter2"
	testRedirectURI  = "https://app.track.test/callback"
)

// env arma un store en memoria con un cliente y un usuario sembrados, y los
// services con un reloj controlable.
type env struct {
	store    *memory.Mem
	services *Services
	client   *repository.Client
	user     *repository.User
	now      time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	client := &repository.Client{
		ID:            "track_testclient0001",
		SecretHash:    tokens.SHA256Base64URL(testClientSecret),
		Name:          "Test App",
		RedirectURIs:  []string{testRedirectURI, "https://app.track.test/alt"},
		AllowedScopes: repository.AllScopes(),
		Active:        true,
		OwnerID:       "system",
		CreatedAt:     now,
	}
	if err := st.Clients().Create(ctx, client); err != nil {
		t.Fatal(err)
	}

	phc, err := password.Hash(password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}, testUserPassword)
	if err != nil {
		t.Fatal(err)
	}
	user := &repository.User{
		ID:           uuid.NewString(),
		Email:        "ana@track.test",
		PasswordHash: phc,
		DisplayName:  "Ana",
		Active:       true,
		CreatedAt:    now,
	}
	if err := st.Users().Create(ctx, user); err != nil {
		t.Fatal(err)
	}

	e := &env{store: st, client: client, user: user, now: now}
	e.services = New(Deps{
		Store:      st,
		CodeTTL:    10 * time.Minute,
		AccessTTL:  time.Hour,
		RefreshTTL: 720 * time.Hour,
		Now:        func() time.Time { return e.now },
	})
	return e
}

// advance corre el reloj inyectado.
func (e *env) advance(d time.Duration) { e.now = e.now.Add(d) }

// issueCode siembra un authorization code aprobado y retorna el string en claro.
func (e *env) issueCode(t *testing.T, challenge, method string) string {
	t.Helper()
	res, err := e.services.Authorize.Decide(context.Background(), AuthorizeDecision{
		AuthorizeQuery: AuthorizeQuery{
			ResponseType:        "code",
			ClientID:            e.client.ID,
			RedirectURI:         testRedirectURI,
			Scope:               "tasks:read notes:read",
			State:               "xyz",
			CodeChallenge:       challenge,
			CodeChallengeMethod: method,
		},
		Approve:  true,
		Email:    e.user.Email,
		Password: testUserPassword,
	})
	if err != nil {
		t.Fatalf("issueCode: %v", err)
	}
	return codeFromRedirect(t, res.RedirectURL)
}

func codeFromRedirect(t *testing.T, redirect string) string {
	t.Helper()
	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("bad redirect URL %q: %v", redirect, err)
	}
	code := u.Query().Get("code")
	if code == "" {
		t.Fatalf("redirect %q has no code", redirect)
	}
	return code
}

func s256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// wantOAuthError exige un *Error con el code dado.
func wantOAuthError(t *testing.T, err error, code string) *Error {
	t.Helper()
	var oe *Error
	if !errors.As(err, &oe) {
		t.Fatalf("got %v (%T), want oauth error %q", err, err, code)
	}
	if oe.Code != code {
		t.Fatalf("got error code %q (%s), want %q", oe.Code, oe.Description, code)
	}
	return oe
}

// wantRedirectError exige un *RedirectError con el code dado.
func wantRedirectError(t *testing.T, err error, code string) *RedirectError {
	t.Helper()
	var re *RedirectError
	if !errors.As(err, &re) {
		t.Fatalf("got %v (%T), want redirect error %q", err, err, code)
	}
	if re.Code != code {
		t.Fatalf("got redirect error %q (%s), want %q", re.Code, re.Description, code)
	}
	return re
}

// wantDirectError exige un *DirectError.
func wantDirectError(t *testing.T, err error) *DirectError {
	t.Helper()
	var de *DirectError
	if !errors.As(err, &de) {
		t.Fatalf("got %v (%T), want direct error", err, err)
	}
	return de
}
