package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/damont/track/internal/domain/repository"
	tokens "github.com/damont/track/internal/security/token"
)

func TestValidate_Success(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pair := issuePair(t, e)

	p, err := e.services.Validate.Validate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if p.User.ID != e.user.ID {
		t.Fatalf("user = %q", p.User.ID)
	}
	if p.ClientID != e.client.ID {
		t.Fatalf("client = %q", p.ClientID)
	}
	if !p.HasScope(repository.ScopeTasksRead) {
		t.Fatalf("missing granted scope, got %v", p.Scopes)
	}
	if p.HasScope(repository.ScopeProjectsWrite) {
		t.Fatalf("unexpected scope, got %v", p.Scopes)
	}
}

func TestValidate_TouchUpdatesLastUsed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pair := issuePair(t, e)

	e.advance(5 * time.Minute)
	if _, err := e.services.Validate.Validate(ctx, pair.AccessToken); err != nil {
		t.Fatal(err)
	}

	stored, err := e.store.AccessTokens().GetByHash(ctx, tokens.SHA256Base64URL(pair.AccessToken))
	if err != nil {
		t.Fatal(err)
	}
	if stored.LastUsedAt == nil || !stored.LastUsedAt.Equal(e.now) {
		t.Fatalf("LastUsedAt = %v, want %v", stored.LastUsedAt, e.now)
	}
}

func TestValidate_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.services.Validate.Validate(ctx, ""); err != ErrInvalidToken {
		t.Fatalf("empty token: got %v", err)
	}
	if _, err := e.services.Validate.Validate(ctx, "unknown-token"); err != ErrInvalidToken {
		t.Fatalf("unknown token: got %v", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pair := issuePair(t, e)

	e.advance(61 * time.Minute)

	if _, err := e.services.Validate.Validate(ctx, pair.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expired token: got %v", err)
	}
}

func TestValidate_InactiveUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pair := issuePair(t, e)

	// Usuario dado de baja con un token todavía vigente.
	inactive := &repository.User{
		ID:           "user-off",
		Email:        "off@track.test",
		PasswordHash: e.user.PasswordHash,
		Active:       false,
		CreatedAt:    e.now,
	}
	if err := e.store.Users().Create(ctx, inactive); err != nil {
		t.Fatal(err)
	}
	tok := &repository.AccessToken{
		ID:        "at-off",
		TokenHash: tokens.SHA256Base64URL("off-token"),
		ClientID:  e.client.ID,
		UserID:    inactive.ID,
		Scopes:    repository.AllScopes(),
		ExpiresAt: e.now.Add(time.Hour),
		CreatedAt: e.now,
	}
	if err := e.store.AccessTokens().Create(ctx, tok); err != nil {
		t.Fatal(err)
	}

	if _, err := e.services.Validate.Validate(ctx, "off-token"); err != ErrInvalidToken {
		t.Fatalf("inactive user token: got %v", err)
	}

	// El token del usuario activo sigue andando.
	if _, err := e.services.Validate.Validate(ctx, pair.AccessToken); err != nil {
		t.Fatal(err)
	}
}
