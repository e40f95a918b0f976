package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cedric28/spinbet-frontend/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const authContextKey contextKey = "auth"

// Store persists sessions keyed by an opaque cookie token.
// Get returns session.ErrNotFound for unknown or expired tokens.
type Store interface {
	Create(ctx context.Context, s session.Session) (string, error)
	Get(ctx context.Context, token string) (session.Session, error)
	Update(ctx context.Context, token string, s session.Session) error
	Delete(ctx context.Context, token string) error
}

// MemoryStore is an in-memory session store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]session.Session),
		now:      time.Now,
	}
}

// Create stores a new session and returns the token.
// PRE: s.User.ID and s.User.AuthToken are non-empty
// POST: Session is stored, token is returned
func (ms *MemoryStore) Create(_ context.Context, s session.Session) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[token] = s
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: Returns the session if present and not expired; expired sessions are removed
func (ms *MemoryStore) Get(_ context.Context, token string) (session.Session, error) {
	ms.mu.RLock()
	s, ok := ms.sessions[token]
	ms.mu.RUnlock()
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if s.Expired(ms.now()) {
		ms.mu.Lock()
		delete(ms.sessions, token)
		ms.mu.Unlock()
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

// Update replaces the session for a given token in-place.
// PRE: token exists in the store
// POST: Session is replaced with the new value
func (ms *MemoryStore) Update(_ context.Context, token string, s session.Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.sessions[token]; !ok {
		return session.ErrNotFound
	}
	ms.sessions[token] = s
	return nil
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: Session with given token is removed
func (ms *MemoryStore) Delete(_ context.Context, token string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, token)
	return nil
}

// DeleteExpired removes every session expired at now.
func (ms *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for token, s := range ms.sessions {
		if s.Expired(now) {
			delete(ms.sessions, token)
			n++
		}
	}
	return n, nil
}

// authState is the per-request result of session resolution.
type authState struct {
	status  session.Status
	token   string
	session session.Session
}

const sessionCookieName = "spinbet_session"

// Auth returns middleware that resolves the session status for every request.
// It does NOT block requests; use RequireSession for that.
// A store failure yields StatusLoading rather than a logout.
func Auth(store Store, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := authState{status: session.StatusUnauthenticated}

			cookie, err := r.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				s, err := store.Get(r.Context(), cookie.Value)
				switch {
				case err == nil:
					state = authState{status: session.StatusAuthenticated, token: cookie.Value, session: s}
				case errors.Is(err, session.ErrNotFound):
					ClearSessionCookie(w, secureCookie)
				default:
					slog.Warn("session_store_unavailable", "error", err)
					state.status = session.StatusLoading
				}
			}

			ctx := context.WithValue(r.Context(), authContextKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession returns middleware that gates a route on an authenticated session.
// Loading renders the loading view with 503 and no redirect; unauthenticated
// requests are redirected to loginPath.
func RequireSession(loginPath string, loading http.Handler) func(http.Handler) http.Handler {
	if loading == nil {
		loading = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Loading...", http.StatusServiceUnavailable)
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch StatusFromContext(r.Context()) {
			case session.StatusAuthenticated:
				next.ServeHTTP(w, r)
			case session.StatusLoading:
				w.Header().Set("Retry-After", strconv.Itoa(1))
				loading.ServeHTTP(w, r)
			default:
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
			}
		})
	}
}

// StatusFromContext returns the resolved session status. Requests that never
// passed through Auth are unauthenticated.
func StatusFromContext(ctx context.Context) session.Status {
	state, ok := ctx.Value(authContextKey).(authState)
	if !ok {
		return session.StatusUnauthenticated
	}
	return state.status
}

// GetSessionFromContext extracts the session and its cookie token from the request context.
func GetSessionFromContext(ctx context.Context) (session.Session, string, bool) {
	state, ok := ctx.Value(authContextKey).(authState)
	if !ok || state.status != session.StatusAuthenticated {
		return session.Session{}, "", false
	}
	return state.session, state.token, true
}

// ContextWithSession returns a context carrying an authenticated session.
// Intended for use in tests.
func ContextWithSession(ctx context.Context, token string, s session.Session) context.Context {
	return context.WithValue(ctx, authContextKey, authState{status: session.StatusAuthenticated, token: token, session: s})
}

// ContextWithStatus returns a context carrying a bare status, e.g. loading.
// Intended for use in tests.
func ContextWithStatus(ctx context.Context, status session.Status) context.Context {
	return context.WithValue(ctx, authContextKey, authState{status: status})
}

// SetSessionCookie sets the session cookie on the response; it expires with the session.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	c := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		c.Expires = expires
		c.MaxAge = int(time.Until(expires).Seconds())
	}
	http.SetCookie(w, c)
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// GenerateToken returns a random 256-bit hex session token.
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
