package session_test

import (
	"testing"
	"time"

	"github.com/cedric28/spinbet-frontend/internal/domain/session"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestNew_UsesTTL verifies the default lifetime applies without a token expiry.
func TestNew_UsesTTL(t *testing.T) {
	s := session.New(session.User{ID: "1", AuthToken: "tok"}, now, time.Hour, time.Time{})
	if !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, now.Add(time.Hour))
	}
}

// TestNew_TokenExpiryWins verifies an earlier token expiry caps the session.
func TestNew_TokenExpiryWins(t *testing.T) {
	exp := now.Add(10 * time.Minute)
	s := session.New(session.User{ID: "1", AuthToken: "tok"}, now, time.Hour, exp)
	if !s.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, exp)
	}
}

// TestNew_ZeroTTLFallsBackToDefault verifies a zero ttl means DefaultTTL.
func TestNew_ZeroTTLFallsBackToDefault(t *testing.T) {
	s := session.New(session.User{ID: "1"}, now, 0, time.Time{})
	if !s.ExpiresAt.Equal(now.Add(session.DefaultTTL)) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, now.Add(session.DefaultTTL))
	}
}

// TestSession_Expired tests the expiry boundary.
func TestSession_Expired(t *testing.T) {
	s := session.Session{ExpiresAt: now}
	if s.Expired(now.Add(-time.Second)) {
		t.Error("session should be live before ExpiresAt")
	}
	if !s.Expired(now) {
		t.Error("session should be expired at ExpiresAt")
	}
	if (session.Session{}).Expired(now) {
		t.Error("zero ExpiresAt should never expire")
	}
}

// TestSession_Flashes verifies flashes are consumed once.
func TestSession_Flashes(t *testing.T) {
	var s session.Session
	s.AddFlash(session.FlashSuccess, "Success", "done")
	got := s.TakeFlashes()
	if len(got) != 1 || got[0].Text != "done" {
		t.Fatalf("TakeFlashes = %v", got)
	}
	if len(s.TakeFlashes()) != 0 {
		t.Error("flashes should be cleared after TakeFlashes")
	}
}

// TestUser_NumericID verifies the id conversion used for API paths.
func TestUser_NumericID(t *testing.T) {
	if id, err := (session.User{ID: "42"}).NumericID(); err != nil || id != 42 {
		t.Errorf("NumericID() = %d, %v; want 42, nil", id, err)
	}
	if _, err := (session.User{ID: "abc"}).NumericID(); err == nil {
		t.Error("NumericID() accepted a non-numeric id")
	}
}
