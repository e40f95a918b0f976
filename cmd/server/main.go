package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	web "github.com/cedric28/spinbet-frontend/internal/adapters/http"
	"github.com/cedric28/spinbet-frontend/internal/adapters/http/middleware"
	"github.com/cedric28/spinbet-frontend/internal/adapters/http/perf"
	"github.com/cedric28/spinbet-frontend/internal/adapters/storage"
	sessionStore "github.com/cedric28/spinbet-frontend/internal/adapters/storage/session"
	"github.com/cedric28/spinbet-frontend/internal/config"
	"github.com/cedric28/spinbet-frontend/internal/platform/otel"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout   = 10 * time.Second
	sessionPruneEvery = 10 * time.Minute
	readHeaderTimeout = 5 * time.Second
	rateLimitInterval = time.Minute
)

// store is a session store that can also drop expired rows.
type store interface {
	middleware.Store
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	root := &cobra.Command{
		Use:           "spinbet-frontend",
		Short:         "Participation dashboard in front of the participation API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $"+config.ConfigPathEnv+")")

	root.AddCommand(serve,
		&cobra.Command{
			Use:   "prune-sessions",
			Short: "Delete expired sessions from the SQLite store",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runPrune(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

// setup loads .env, then config, and installs the process logger.
func setup(configPath string) (config.Config, error) {
	if err := config.LoadDotEnv(config.DotEnvFile); err != nil {
		return config.Config{}, err
	}
	if configPath == "" {
		configPath = os.Getenv(config.ConfigPathEnv)
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(logger)
	if cfg.KeysGenerated() {
		slog.Warn("keys_generated", "detail", "session and CSRF keys are random for this process; set SPINBET_SESSION_KEY and SPINBET_CSRF_KEY")
	}
	return cfg, nil
}

// openStore builds the configured session store. closeDB releases the database, if any.
func openStore(ctx context.Context, cfg config.Config, collector *perf.Collector) (st store, closeDB func() error, err error) {
	if cfg.Session.Store == config.StoreMemory {
		return middleware.NewMemoryStore(), func() error { return nil }, nil
	}

	sealer, err := sessionStore.NewSealer(cfg.SessionKey())
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(ctx, cfg.Session.DBPath, collector, cfg.Perf.SlowQueryMs)
	if err != nil {
		return nil, nil, err
	}
	return sessionStore.NewSQLiteStore(db, sealer, middleware.GenerateToken), db.Close, nil
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := setup(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, otel.Options{
		Enabled:     cfg.OTel.Enabled,
		Endpoint:    cfg.OTel.Endpoint,
		ServiceName: cfg.OTel.ServiceName,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	// Performance instrumentation: requests, session queries and API calls share one collector
	collector := perf.NewCollector(perf.DefaultRingSize)

	sessions, closeStore, err := openStore(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer closeStore()
	go pruneSessions(ctx, sessions, sessionPruneEvery)

	client, err := api.New(cfg.API.URL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithUnexpectedHandler(middleware.RaiseUnexpected),
		api.WithCollector(collector),
		api.WithSlowThreshold(cfg.Perf.SlowUpstreamMs),
	)
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimit, rateLimitInterval)
	defer limiter.Stop()

	server, err := web.NewServer(web.Deps{
		Sessions:      sessions,
		Auth:          api.NewAuthService(client),
		Participation: api.NewParticipationService(client),
		Collector:     collector,
		Limiter:       limiter,
	}, web.Options{
		LoginPath:      cfg.Session.LoginPath,
		SessionTTL:     cfg.Session.TTL,
		SecureCookies:  cfg.IsProduction(),
		CSRFKey:        cfg.CSRFKey(),
		TrustedOrigins: cfg.Security.TrustedOrigins,
		DashboardIntro: cfg.Dashboard.Intro,
		Debug:          !cfg.IsProduction(),
		SlowRequestMs:  cfg.Perf.SlowRequestMs,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env, "api_url", cfg.API.URL, "session_store", cfg.Session.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("server_stop", "reason", "signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// pruneSessions drops expired sessions every interval until ctx is done.
func pruneSessions(ctx context.Context, st store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.DeleteExpired(ctx, time.Now())
			if err != nil {
				slog.Warn("session_prune_failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("session_prune", "deleted", n)
			}
		}
	}
}

func runPrune(ctx context.Context, configPath string) error {
	cfg, err := setup(configPath)
	if err != nil {
		return err
	}
	if cfg.Session.Store != config.StoreSQLite {
		return fmt.Errorf("prune-sessions needs the %s session store, got %q", config.StoreSQLite, cfg.Session.Store)
	}

	sessions, closeStore, err := openStore(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	slog.Info("session_prune", "deleted", n)
	return nil
}
