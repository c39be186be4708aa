package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/damont/track/internal/domain/repository"
)

func newCode(hash string, expiresAt time.Time) *repository.AuthorizationCode {
	return &repository.AuthorizationCode{
		ID:        "code-" + hash,
		CodeHash:  hash,
		ClientID:  "track_client",
		UserID:    "user-1",
		Scopes:    []repository.Scope{repository.ScopeTasksRead},
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func TestCodeConsume_SingleUse(t *testing.T) {
	ctx := context.Background()
	m := New()
	now := time.Now()

	if err := m.Codes().Create(ctx, newCode("h1", now.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	c, err := m.Codes().Consume(ctx, "h1", now)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Used {
		t.Fatal("consumed code should come back with Used=true")
	}

	if _, err := m.Codes().Consume(ctx, "h1", now); err != repository.ErrCodeUsed {
		t.Fatalf("second consume: got %v, want ErrCodeUsed", err)
	}
}

func TestCodeConsume_Expired(t *testing.T) {
	ctx := context.Background()
	m := New()
	now := time.Now()

	if err := m.Codes().Create(ctx, newCode("h1", now.Add(-time.Second))); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Codes().Consume(ctx, "h1", now); err != repository.ErrExpired {
		t.Fatalf("got %v, want ErrExpired", err)
	}
	// Expirado no se consume: un retry sigue viendo ErrExpired, no ErrCodeUsed.
	if _, err := m.Codes().Consume(ctx, "h1", now); err != repository.ErrExpired {
		t.Fatalf("retry: got %v, want ErrExpired", err)
	}
}

func TestCodeConsume_NotFound(t *testing.T) {
	if _, err := New().Codes().Consume(context.Background(), "nope", time.Now()); err != repository.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCodeConsume_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	m := New()
	now := time.Now()

	if err := m.Codes().Create(ctx, newCode("h1", now.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, used := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Codes().Consume(ctx, "h1", now)
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				wins++
			case repository.ErrCodeUsed:
				used++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("exactly one goroutine must win, got %d", wins)
	}
	if used != workers-1 {
		t.Fatalf("losers = %d, want %d", used, workers-1)
	}
}

func TestClientRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := New()

	c := &repository.Client{
		ID:            "track_abc",
		SecretHash:    "hash",
		Name:          "Test App",
		RedirectURIs:  []string{"https://app.test/cb"},
		AllowedScopes: repository.AllScopes(),
	}
	if err := m.Clients().Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	if err := m.Clients().Create(ctx, c); err != repository.ErrConflict {
		t.Fatalf("duplicate create: got %v, want ErrConflict", err)
	}

	got, err := m.Clients().GetByID(ctx, "track_abc")
	if err != nil {
		t.Fatal(err)
	}
	// El repo devuelve copias: mutar el resultado no toca el estado interno.
	got.Name = "mutated"
	again, _ := m.Clients().GetByID(ctx, "track_abc")
	if again.Name != "Test App" {
		t.Fatal("repo returned a live reference instead of a copy")
	}

	if _, err := m.Clients().GetByID(ctx, "track_missing"); err != repository.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAccessTokenRepo_RevokeAndTouch(t *testing.T) {
	ctx := context.Background()
	m := New()
	now := time.Now()

	tok := &repository.AccessToken{
		ID:        "at-1",
		TokenHash: "th-1",
		ClientID:  "track_abc",
		UserID:    "user-1",
		Scopes:    []repository.Scope{repository.ScopeTasksRead},
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := m.AccessTokens().Create(ctx, tok); err != nil {
		t.Fatal(err)
	}

	if err := m.AccessTokens().Touch(ctx, "at-1", now); err != nil {
		t.Fatal(err)
	}
	got, err := m.AccessTokens().GetByHash(ctx, "th-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastUsedAt == nil || !got.LastUsedAt.Equal(now) {
		t.Fatalf("LastUsedAt not persisted: %v", got.LastUsedAt)
	}
	if !got.Valid(now) {
		t.Fatal("fresh token should be valid")
	}

	if err := m.AccessTokens().RevokeByID(ctx, "at-1"); err != nil {
		t.Fatal(err)
	}
	got, _ = m.AccessTokens().GetByHash(ctx, "th-1")
	if got.Valid(now) {
		t.Fatal("revoked token should not be valid")
	}

	if err := m.AccessTokens().Revoke(ctx, "missing"); err != repository.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRefreshTokenRepo_SetAccessTokenID(t *testing.T) {
	ctx := context.Background()
	m := New()
	now := time.Now()

	rt := &repository.RefreshToken{
		ID:            "rt-1",
		TokenHash:     "rh-1",
		ClientID:      "track_abc",
		UserID:        "user-1",
		AccessTokenID: "at-1",
		ExpiresAt:     now.Add(time.Hour),
		CreatedAt:     now,
	}
	if err := m.RefreshTokens().Create(ctx, rt); err != nil {
		t.Fatal(err)
	}
	if err := m.RefreshTokens().SetAccessTokenID(ctx, "rt-1", "at-2"); err != nil {
		t.Fatal(err)
	}
	got, err := m.RefreshTokens().GetByHash(ctx, "rh-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessTokenID != "at-2" {
		t.Fatalf("AccessTokenID = %q, want at-2", got.AccessTokenID)
	}
}

func TestUserRepo_EmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	m := New()

	u := &repository.User{ID: "user-1", Email: "Ana@Track.Test", PasswordHash: "x", Active: true}
	if err := m.Users().Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, err := m.Users().GetByEmail(ctx, "ana@track.test")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "user-1" {
		t.Fatalf("got user %q", got.ID)
	}
	dup := &repository.User{ID: "user-2", Email: "ANA@track.test", PasswordHash: "y"}
	if err := m.Users().Create(ctx, dup); err != repository.ErrConflict {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}
