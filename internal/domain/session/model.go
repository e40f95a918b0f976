package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DefaultTTL is how long a session lives when the token carries no earlier expiry.
const DefaultTTL = 24 * time.Hour

// Status is the resolved authentication state of a request.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// ErrNotFound is returned by stores when no live session exists for a token.
var ErrNotFound = errors.New("session not found")

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// User is the identity exposed to handlers on every session read.
type User struct {
	ID        string
	AuthToken string
	Name      string
	Email     string
	Image     string
}

// NumericID returns the user id as the API's integer key.
func (u User) NumericID() (int, error) {
	id, err := strconv.Atoi(u.ID)
	if err != nil {
		return 0, fmt.Errorf("user id %q is not numeric: %w", u.ID, err)
	}
	return id, nil
}

// Session is the server-side state behind a browser cookie.
type Session struct {
	User      User
	CreatedAt time.Time
	ExpiresAt time.Time
	Flashes   []Flash
}

// New creates a session for user that expires after ttl, or at tokenExpiry if earlier.
// PRE: user.ID and user.AuthToken are non-empty
// POST: CreatedAt = now, ExpiresAt <= now+ttl
func New(user User, now time.Time, ttl time.Duration, tokenExpiry time.Time) Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	expires := now.Add(ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expires) {
		expires = tokenExpiry
	}
	return Session{
		User:      user,
		CreatedAt: now,
		ExpiresAt: expires,
	}
}

// Expired reports whether the session is no longer usable at now.
// INVARIANT: Session fields are not mutated
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AddFlash queues a message for the next render.
func (s *Session) AddFlash(kind, title, text string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Title: title, Text: text})
}

// TakeFlashes returns the queued messages and clears them.
func (s *Session) TakeFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}
