package web

import (
	"log/slog"
	"net/http"

	"github.com/cedric28/spinbet-frontend/internal/adapters/http/middleware"
	"github.com/cedric28/spinbet-frontend/internal/application/orchestrators"
	"github.com/cedric28/spinbet-frontend/internal/domain/form"
	"github.com/cedric28/spinbet-frontend/internal/domain/session"
	"github.com/cedric28/spinbet-frontend/internal/platform/requestctx"
)

// authPage is the content of login.html and register.html.
// Passwords are never echoed back.
type authPage struct {
	Name   string
	Email  string
	Errors form.Errors
	Error  string // page-level failure from the API
}

// confirmPage is the content of confirm.html.
type confirmPage struct {
	Heading      string
	Text         string
	Action       string
	ConfirmLabel string
	CancelURL    string
}

// handleLoginPage handles GET /login
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.StatusFromContext(r.Context()) == session.StatusAuthenticated {
		s.redirect(w, r, "/")
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Login", authPage{})
}

// handleLogin handles POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if middleware.StatusFromContext(r.Context()) == session.StatusAuthenticated {
		s.redirect(w, r, "/")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	f := form.LoginForm{
		Email:    r.PostForm.Get(form.FieldEmail),
		Password: r.PostForm.Get(form.FieldPassword),
	}
	if errs := f.Validate(); errs.Any() {
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", "Login", authPage{Email: f.Email, Errors: errs})
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    f.Email,
		Password: f.Password,
	}, orchestrators.LoginDeps{
		AuthAPI:      s.deps.Auth,
		SessionStore: s.deps.Sessions,
		DecodeToken:  s.deps.DecodeToken,
		Now:          s.deps.Now,
		SessionTTL:   s.opts.SessionTTL,
	})
	if err != nil {
		slog.Error("internal_error", "error", "create session: "+err.Error(), "request_id", requestctx.RequestIDFromContext(r.Context()))
	}
	if !result.OK {
		s.render(w, r, result.Status, "login.html", "Login", authPage{Error: result.Error})
		return
	}

	middleware.SetSessionCookie(w, result.SessionToken, result.ExpiresAt, s.opts.SecureCookies)
	s.redirect(w, r, "/dashboard")
}

// handleRegisterPage handles GET /register
func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", "Register", authPage{})
}

// handleRegister handles POST /register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	f := form.RegisterForm{
		Name:            r.PostForm.Get(form.FieldName),
		Email:           r.PostForm.Get(form.FieldEmail),
		Password:        r.PostForm.Get(form.FieldPassword),
		ConfirmPassword: r.PostForm.Get(form.FieldConfirmPassword),
	}
	if errs := f.Validate(); errs.Any() {
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", "Register", authPage{Name: f.Name, Email: f.Email, Errors: errs})
		return
	}

	_, err := orchestrators.ExecuteRegister(r.Context(), orchestrators.RegisterInput{
		Name:     f.Name,
		Email:    f.Email,
		Password: f.Password,
	}, orchestrators.RegisterDeps{AuthAPI: s.deps.Auth})
	if err != nil {
		s.render(w, r, failureStatus(err), "register.html", "Register", authPage{Error: orchestrators.RegisterErrorText(err)})
		return
	}

	s.redirect(w, r, s.opts.LoginPath)
}

// handleLogoutConfirm handles GET /logout
func (s *Server) handleLogoutConfirm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "confirm.html", "Logout", confirmPage{
		Heading:      "Are you sure you want to logout?",
		Action:       "/logout",
		ConfirmLabel: "Yes, log me out!",
		CancelURL:    "/dashboard",
	})
}

// handleLogout handles POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, token, ok := middleware.GetSessionFromContext(r.Context()); ok {
		if err := s.deps.Sessions.Delete(r.Context(), token); err != nil {
			slog.Warn("session_delete_failed", "error", err)
		}
		slog.Info("auth_event", "event", "logout", "user_id", sess.User.ID)
	}
	middleware.ClearSessionCookie(w, s.opts.SecureCookies)
	http.Redirect(w, r, s.opts.LoginPath, http.StatusSeeOther)
}
