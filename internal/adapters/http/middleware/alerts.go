package middleware

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	"github.com/cedric28/spinbet-frontend/internal/domain/session"
)

const alertsContextKey contextKey = "alerts"

// Alerts collects popups raised while serving one request. The page rendered
// for the request shows them; a redirect moves them into the session flashes.
type Alerts struct {
	mu    sync.Mutex
	items []session.Flash
}

// Add queues an alert. An alert identical to one already queued is dropped.
// Safe on a nil receiver.
func (a *Alerts) Add(kind, title, text string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	f := session.Flash{Kind: kind, Title: title, Text: text}
	if slices.Contains(a.items, f) {
		return
	}
	a.items = append(a.items, f)
}

// Take returns the queued alerts and clears them.
func (a *Alerts) Take() []session.Flash {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	items := a.items
	a.items = nil
	return items
}

// WithAlerts returns middleware that attaches an empty alert collector to each request.
func WithAlerts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), alertsContextKey, &Alerts{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AlertsFromContext returns the request's collector, or nil outside WithAlerts.
func AlertsFromContext(ctx context.Context) *Alerts {
	a, _ := ctx.Value(alertsContextKey).(*Alerts)
	return a
}

// ContextWithAlerts attaches a. Intended for use in tests.
func ContextWithAlerts(ctx context.Context, a *Alerts) context.Context {
	return context.WithValue(ctx, alertsContextKey, a)
}

// RaiseUnexpected is the api.UnexpectedHandler that turns interceptor hits into
// the generic error popup of the current request.
func RaiseUnexpected(ctx context.Context, _ *api.Error) {
	AlertsFromContext(ctx).Add(session.FlashError, "Error", api.UnexpectedErrorText)
}
