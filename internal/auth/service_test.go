package auth

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/vovakirdan/gifchat-server/internal/color"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()

	return NewService(&JWTConfig{
		Secret: []byte("test-secret-change-me"),
		Issuer: "test",
		TTL:    ttl,
	})
}

func TestNewSessionRoundTrip(t *testing.T) {
	svc := newTestService(t, time.Hour)

	session, token, err := svc.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if session.ID == "" || token == "" {
		t.Fatalf("expected id and token, got %+v %q", session, token)
	}
	if session.Color != color.Derive(session.ID) || !colorPattern.MatchString(session.Color) {
		t.Fatalf("unexpected color %q for %s", session.Color, session.ID)
	}

	resolved, err := svc.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved != session {
		t.Fatalf("expected %+v, got %+v", session, resolved)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	svc := newTestService(t, time.Hour)
	other := NewService(&JWTConfig{Secret: []byte("another-secret"), Issuer: "test", TTL: time.Hour})
	expired := newTestService(t, -time.Minute)

	_, foreign, err := other.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	_, stale, err := expired.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
	} {
		if _, err := svc.Resolve(token); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("%s: expected ErrInvalidSession, got %v", name, err)
		}
	}
}

func TestFallbackSession(t *testing.T) {
	s := FallbackSession("conn-123")
	if s.ID != "conn-123" || s.Color != color.Derive("conn-123") {
		t.Fatalf("unexpected fallback session: %+v", s)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2" {
		t.Fatalf("password stored in plain text")
	}
	if err := ComparePassword(hash, "hunter2"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := ComparePassword(hash, "hunter3"); err == nil {
		t.Fatalf("expected mismatch")
	}
}
