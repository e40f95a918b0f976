package web

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	"github.com/cedric28/spinbet-frontend/internal/adapters/http/middleware"
	"github.com/cedric28/spinbet-frontend/internal/adapters/http/perf"
	"github.com/cedric28/spinbet-frontend/internal/application/orchestrators"
	"github.com/cedric28/spinbet-frontend/internal/application/projections"
)

// AuthAPI is the slice of the remote API used by the login and register pages.
type AuthAPI interface {
	orchestrators.AuthAPIForLogin
	orchestrators.AuthAPIForRegister
}

// Deps holds the collaborators the handlers call.
type Deps struct {
	Sessions      middleware.Store
	Auth          AuthAPI
	Participation orchestrators.ParticipationAPI
	DecodeToken   func(token string) (api.TokenClaims, error) // nil means api.DecodeToken
	Collector     *perf.Collector
	Limiter       *middleware.RateLimiter // nil disables rate limiting
	Colors        projections.ColorFunc   // nil means random colors per render
	Now           func() time.Time
}

// Options configures the HTTP surface.
type Options struct {
	LoginPath      string
	SessionTTL     time.Duration
	SecureCookies  bool
	CSRFKey        []byte
	TrustedOrigins []string
	DashboardIntro string // markdown
	Debug          bool   // exposes /debug/perf
	SlowRequestMs  int
}

// Server renders the pages and owns no state beyond its dependencies.
type Server struct {
	deps  Deps
	opts  Options
	pages map[string]*template.Template
}

// NewServer validates deps and parses the embedded templates.
// PRE: Sessions, Auth and Participation are non-nil; CSRFKey is 32 bytes
// POST: Returns a server ready to serve Handler()
func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Sessions == nil || deps.Auth == nil || deps.Participation == nil {
		return nil, errors.New("web: sessions, auth and participation dependencies are required")
	}
	if len(opts.CSRFKey) != 32 {
		return nil, errors.New("web: CSRF key must be 32 bytes")
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if deps.DecodeToken == nil {
		deps.DecodeToken = api.DecodeToken
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{deps: deps, opts: opts, pages: pages}, nil
}

// Handler wires routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Outermost last: Timing -> RequestID -> RateLimit -> Auth -> Alerts -> CSRF -> SecurityHeaders -> mux
	chain := []func(http.Handler) http.Handler{
		middleware.SecurityHeaders,
		middleware.CSRF(s.opts.CSRFKey, s.opts.SecureCookies, s.opts.TrustedOrigins),
		middleware.WithAlerts,
		middleware.Auth(s.deps.Sessions, s.opts.SecureCookies),
	}
	if s.deps.Limiter != nil {
		chain = append(chain, middleware.RateLimit(s.deps.Limiter))
	}
	chain = append(chain,
		middleware.RequestID,
		middleware.Timing(s.deps.Collector, s.opts.SlowRequestMs),
	)
	return middleware.Chain(mux, chain...)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	guard := middleware.RequireSession(s.opts.LoginPath, http.HandlerFunc(s.handleLoading))
	protect := func(h http.HandlerFunc) http.Handler { return guard(h) }

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFiles)))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET "+s.opts.LoginPath, s.handleLoginPage)
	mux.HandleFunc("POST "+s.opts.LoginPath, s.handleLogin)
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.Handle("GET /logout", protect(s.handleLogoutConfirm))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /dashboard", protect(s.handleDashboard))
	mux.Handle("GET /dashboard/chart.json", protect(s.handleChartJSON))
	mux.Handle("POST /dashboard/participations", protect(s.handleCreateParticipation))
	mux.Handle("POST /dashboard/participations/{id}", protect(s.handleUpdateParticipation))
	mux.Handle("GET /dashboard/participations/{id}/delete", protect(s.handleDeleteConfirm))
	mux.Handle("POST /dashboard/participations/{id}/delete", protect(s.handleDeleteParticipation))

	if s.opts.Debug {
		mux.HandleFunc("GET /debug/perf", s.handlePerf)
	}
}
