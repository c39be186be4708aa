package sessionjwt

import (
	"testing"
	"time"
)

func TestMintAndVerify(t *testing.T) {
	iss := New("super-secret", "https://auth.track.test", time.Hour)
	tok, err := iss.Mint("user-123")
	if err != nil {
		t.Fatal(err)
	}
	uid, err := iss.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if uid != "user-123" {
		t.Fatalf("got userID %q, want user-123", uid)
	}
}

func TestVerify_Expired(t *testing.T) {
	iss := New("super-secret", "https://auth.track.test", -time.Minute)
	tok, err := iss.Mint("user-123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Verify(tok); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := New("secret-a", "https://auth.track.test", time.Hour).Mint("user-123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New("secret-b", "https://auth.track.test", time.Hour).Verify(tok); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession for wrong secret, got %v", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	tok, err := New("secret", "https://other.example", time.Hour).Mint("user-123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New("secret", "https://auth.track.test", time.Hour).Verify(tok); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession for wrong issuer, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	iss := New("secret", "https://auth.track.test", time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := iss.Verify(tok); err != ErrInvalidSession {
			t.Fatalf("expected ErrInvalidSession for %q, got %v", tok, err)
		}
	}
}
