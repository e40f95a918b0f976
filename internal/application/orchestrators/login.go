package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	"github.com/cedric28/spinbet-frontend/internal/domain/session"
)

// Login error texts shown on the login page.
const (
	MsgAuthenticationFailed = "Authentication failed"
	MsgNoResponse           = "No response from server. Please try again later."
	MsgRequestSetup         = "An error occurred while setting up the request. Please try again."
	MsgLoginUnexpected      = "An unexpected error occurred. Please try again."
	MsgLoginFailed          = "Login failed"
)

// AuthAPIForLogin defines the API interface needed by Login.
type AuthAPIForLogin interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// SessionStoreForLogin defines the store interface needed by Login.
type SessionStoreForLogin interface {
	Create(ctx context.Context, s session.Session) (string, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AuthAPI      AuthAPIForLogin
	SessionStore SessionStoreForLogin
	DecodeToken  func(token string) (api.TokenClaims, error)
	Now          func() time.Time
	SessionTTL   time.Duration
}

// SignInResult is what the login page receives. Error is a display string.
type SignInResult struct {
	OK           bool
	Error        string
	Status       int
	SessionToken string
	User         session.User
	ExpiresAt    time.Time
}

// authorizedUser is what authorize hands to the token callback.
type authorizedUser struct {
	ID        string
	Email     string
	AuthToken string
}

// tokenClaims is the server-side token the session is built from.
type tokenClaims struct {
	ID        string
	AuthToken string
	Name      string
	Email     string
	Image     string
	ExpiresAt time.Time
}

// ExecuteLogin exchanges credentials with the API and opens a session.
// PRE: input passed LoginForm validation
// POST: On OK a session exists and SessionToken identifies it; otherwise no session was created
// INVARIANT: The returned error is non-nil only for session store failures
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (SignInResult, error) {
	user, claims, err := authorize(ctx, input, deps)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "error", err.Error())
		return SignInResult{Error: loginErrorText(err), Status: http.StatusUnauthorized}, nil
	}
	if user == nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "no_user")
		return SignInResult{Error: MsgLoginFailed, Status: http.StatusUnauthorized}, nil
	}

	token := jwtCallback(claims, user)
	sessUser := sessionCallback(token)

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	sess := session.New(sessUser, now, deps.SessionTTL, token.ExpiresAt)
	if sess.Expired(now) {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "token_expired")
		return SignInResult{Error: MsgLoginFailed, Status: http.StatusUnauthorized}, nil
	}

	sessionToken, err := deps.SessionStore.Create(ctx, sess)
	if err != nil {
		return SignInResult{Error: MsgLoginUnexpected, Status: http.StatusInternalServerError}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", input.Email, "user_id", sessUser.ID)
	return SignInResult{OK: true, Status: http.StatusOK, SessionToken: sessionToken, User: sessUser, ExpiresAt: sess.ExpiresAt}, nil
}

// authorize calls the API and decodes the returned token.
// A nil user with a nil error means the API returned no token.
func authorize(ctx context.Context, input LoginInput, deps LoginDeps) (*authorizedUser, api.TokenClaims, error) {
	token, err := deps.AuthAPI.Login(ctx, input.Email, input.Password)
	if errors.Is(err, api.ErrEmptyToken) {
		return nil, api.TokenClaims{}, nil
	}
	if err != nil {
		return nil, api.TokenClaims{}, err
	}

	decode := deps.DecodeToken
	if decode == nil {
		decode = api.DecodeToken
	}
	claims, err := decode(token)
	if err != nil {
		return nil, api.TokenClaims{}, err
	}
	return &authorizedUser{ID: claims.ID, Email: claims.Email, AuthToken: token}, claims, nil
}

// jwtCallback copies the authorized user onto the session token.
func jwtCallback(claims api.TokenClaims, user *authorizedUser) tokenClaims {
	return tokenClaims{
		ID:        user.ID,
		AuthToken: user.AuthToken,
		Name:      claims.Name,
		Email:     user.Email,
		Image:     claims.Image,
		ExpiresAt: claims.ExpiresAt,
	}
}

// sessionCallback exposes the token's identity as the session user.
func sessionCallback(token tokenClaims) session.User {
	return session.User{
		ID:        token.ID,
		AuthToken: token.AuthToken,
		Name:      token.Name,
		Email:     token.Email,
		Image:     token.Image,
	}
}

// loginErrorText maps an authorize failure to the text the login page shows.
func loginErrorText(err error) string {
	apiErr, ok := api.AsError(err)
	switch {
	case !ok:
		return MsgLoginUnexpected
	case apiErr.HasResponse():
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgAuthenticationFailed
	case errors.Is(apiErr, api.ErrRequestSetup):
		return MsgRequestSetup
	default:
		return MsgNoResponse
	}
}
