package oauth

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/damont/track/internal/domain/repository"
	tokens "github.com/damont/track/internal/security/token"
)

func validQuery(e *env) AuthorizeQuery {
	return AuthorizeQuery{
		ResponseType: "code",
		ClientID:     e.client.ID,
		RedirectURI:  testRedirectURI,
		Scope:        "tasks:read",
		State:        "opaque-state",
	}
}

func TestPrepare_Success(t *testing.T) {
	e := newEnv(t)
	data, err := e.services.Authorize.Prepare(context.Background(), validQuery(e))
	if err != nil {
		t.Fatal(err)
	}
	if data.Client.ID != e.client.ID {
		t.Fatalf("client = %q", data.Client.ID)
	}
	if len(data.Scopes) != 1 || data.Scopes[0] != "tasks:read" {
		t.Fatalf("scopes = %v", data.Scopes)
	}
}

func TestPrepare_DirectErrors(t *testing.T) {
	// Fallos anteriores a la validación del redirect URI: 400 directo,
	// nunca un redirect.
	e := newEnv(t)
	ctx := context.Background()

	q := validQuery(e)
	q.ClientID = ""
	_, err := e.services.Authorize.Prepare(ctx, q)
	wantDirectError(t, err)

	q = validQuery(e)
	q.ClientID = "track_unknown"
	_, err = e.services.Authorize.Prepare(ctx, q)
	wantDirectError(t, err)

	q = validQuery(e)
	q.RedirectURI = ""
	_, err = e.services.Authorize.Prepare(ctx, q)
	wantDirectError(t, err)

	q = validQuery(e)
	q.RedirectURI = "https://evil.example/cb"
	_, err = e.services.Authorize.Prepare(ctx, q)
	wantDirectError(t, err)
}

func TestPrepare_InactiveClient(t *testing.T) {
	// La desactivación es un soft-delete terminal: el cliente deja de poder
	// iniciar el flujo. Error directo, antes de cualquier redirect.
	e := newEnv(t)
	ctx := context.Background()

	inactive := &repository.Client{
		ID:            "track_disabledclient",
		SecretHash:    tokens.SHA256Base64URL("whatever"),
		Name:          "Disabled App",
		RedirectURIs:  []string{testRedirectURI},
		AllowedScopes: repository.AllScopes(),
		Active:        false,
		CreatedAt:     e.now,
	}
	if err := e.store.Clients().Create(ctx, inactive); err != nil {
		t.Fatal(err)
	}

	q := validQuery(e)
	q.ClientID = inactive.ID
	_, err := e.services.Authorize.Prepare(ctx, q)
	de := wantDirectError(t, err)
	if de.Reason != "Client is disabled" {
		t.Fatalf("reason = %q", de.Reason)
	}
}

func TestPrepare_BadResponseTypeRedirects(t *testing.T) {
	e := newEnv(t)
	q := validQuery(e)
	q.ResponseType = "token"

	_, err := e.services.Authorize.Prepare(context.Background(), q)
	re := wantRedirectError(t, err, "unsupported_response_type")

	loc := re.Location()
	if !strings.HasPrefix(loc, testRedirectURI+"?") {
		t.Fatalf("location %q not under the registered redirect URI", loc)
	}
	u, _ := url.Parse(loc)
	if u.Query().Get("error") != "unsupported_response_type" {
		t.Fatalf("location %q missing error param", loc)
	}
	if u.Query().Get("state") != "opaque-state" {
		t.Fatalf("location %q must echo state", loc)
	}
}

func TestPrepare_BadChallengeMethod(t *testing.T) {
	e := newEnv(t)
	q := validQuery(e)
	q.CodeChallengeMethod = "S512"
	_, err := e.services.Authorize.Prepare(context.Background(), q)
	wantRedirectError(t, err, "invalid_request")

	q = validQuery(e)
	q.CodeChallengeMethod = "S256"
	// method sin challenge tampoco vale.
	_, err = e.services.Authorize.Prepare(context.Background(), q)
	wantRedirectError(t, err, "invalid_request")
}

func TestDecide_Success(t *testing.T) {
	e := newEnv(t)
	res, err := e.services.Authorize.Decide(context.Background(), AuthorizeDecision{
		AuthorizeQuery: validQuery(e),
		Approve:        true,
		Email:          e.user.Email,
		Password:       testUserPassword,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.UserID != e.user.ID {
		t.Fatalf("user = %q", res.UserID)
	}
	u, err := url.Parse(res.RedirectURL)
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("code") == "" {
		t.Fatalf("redirect %q missing code", res.RedirectURL)
	}
	if u.Query().Get("state") != "opaque-state" {
		t.Fatalf("redirect %q missing state", res.RedirectURL)
	}

	// El registro persistido guarda el state junto al code.
	rec, err := e.store.Codes().GetByHash(context.Background(), tokens.SHA256Base64URL(u.Query().Get("code")))
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != "opaque-state" {
		t.Fatalf("stored state = %q", rec.State)
	}
}

func TestDecide_PreservesExistingQuery(t *testing.T) {
	e := newEnv(t)
	// El segundo redirect URI registrado no tiene query; registramos la
	// variante con query en un cliente nuevo para este caso.
	ctx := context.Background()
	resp, err := e.services.Register.Register(ctx, RegisterRequest{
		Name:         "Query App",
		RedirectURIs: []string{"https://q.track.test/cb?tenant=a"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := e.services.Authorize.Decide(ctx, AuthorizeDecision{
		AuthorizeQuery: AuthorizeQuery{
			ResponseType: "code",
			ClientID:     resp.ClientID,
			RedirectURI:  "https://q.track.test/cb?tenant=a",
		},
		Approve:  true,
		Email:    e.user.Email,
		Password: testUserPassword,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.RedirectURL, "https://q.track.test/cb?tenant=a&") {
		t.Fatalf("existing query not preserved: %q", res.RedirectURL)
	}
}

func TestDecide_Deny(t *testing.T) {
	e := newEnv(t)
	_, err := e.services.Authorize.Decide(context.Background(), AuthorizeDecision{
		AuthorizeQuery: validQuery(e),
		Approve:        false,
	})
	re := wantRedirectError(t, err, "access_denied")
	if re.Description != "User denied access" {
		t.Fatalf("description = %q", re.Description)
	}
}

func TestDecide_BadCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []AuthorizeDecision{
		{AuthorizeQuery: validQuery(e), Approve: true},                                                    // sin credenciales
		{AuthorizeQuery: validQuery(e), Approve: true, Email: e.user.Email, Password: "wrong"},            // password malo
		{AuthorizeQuery: validQuery(e), Approve: true, Email: "nobody@track.test", Password: "whatever1"}, // email inexistente
		{AuthorizeQuery: validQuery(e), Approve: true, SessionUserID: "no-such-user"},                     // sesión huérfana
	}
	for i, d := range cases {
		_, err := e.services.Authorize.Decide(ctx, d)
		re := wantRedirectError(t, err, "access_denied")
		if re.Description != "Invalid credentials" {
			t.Fatalf("case %d: description = %q", i, re.Description)
		}
	}
}

func TestDecide_InactiveUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Usuario deshabilitado con password correcto.
	e.user.Active = false
	// El memory store devuelve copias, así que hay que re-sembrar.
	inactive := *e.user
	inactive.ID = "user-inactive"
	inactive.Email = "off@track.test"
	if err := e.store.Users().Create(ctx, &inactive); err != nil {
		t.Fatal(err)
	}

	d := AuthorizeDecision{
		AuthorizeQuery: validQuery(e),
		Approve:        true,
		Email:          "off@track.test",
		Password:       testUserPassword,
	}
	_, err := e.services.Authorize.Decide(ctx, d)
	re := wantRedirectError(t, err, "access_denied")
	if re.Description != "Account disabled" {
		t.Fatalf("description = %q", re.Description)
	}
}

func TestDecide_SessionUser(t *testing.T) {
	e := newEnv(t)
	res, err := e.services.Authorize.Decide(context.Background(), AuthorizeDecision{
		AuthorizeQuery: validQuery(e),
		Approve:        true,
		SessionUserID:  e.user.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.UserID != e.user.ID {
		t.Fatalf("user = %q", res.UserID)
	}
}

func TestDecide_TamperedHiddenFields(t *testing.T) {
	// El POST se re-valida completo: un redirect_uri cambiado en el form
	// corta con 400 directo aunque el GET haya pasado.
	e := newEnv(t)
	d := AuthorizeDecision{
		AuthorizeQuery: validQuery(e),
		Approve:        true,
		Email:          e.user.Email,
		Password:       testUserPassword,
	}
	d.RedirectURI = "https://evil.example/steal"
	_, err := e.services.Authorize.Decide(context.Background(), d)
	wantDirectError(t, err)
}
