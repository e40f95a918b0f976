package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	"github.com/cedric28/spinbet-frontend/internal/domain/session"
)

// TestRaiseUnexpected_OncePerFailure verifies the generic popup is raised with the interceptor text.
func TestRaiseUnexpected_OncePerFailure(t *testing.T) {
	var got []session.Flash
	h := WithAlerts(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RaiseUnexpected(r.Context(), &api.Error{StatusCode: 500})
		RaiseUnexpected(r.Context(), &api.Error{StatusCode: 502})
		got = AlertsFromContext(r.Context()).Take()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(got) != 1 {
		t.Fatalf("alerts = %v, want a single popup", got)
	}
	if got[0].Kind != session.FlashError || got[0].Text != api.UnexpectedErrorText {
		t.Errorf("alert = %+v", got[0])
	}
}

func TestAlerts_NilSafe(t *testing.T) {
	var a *Alerts
	a.Add(session.FlashError, "Error", "x")
	if a.Take() != nil {
		t.Error("nil Alerts returned items")
	}
	RaiseUnexpected(context.Background(), &api.Error{})
}

func TestAlerts_TakeClears(t *testing.T) {
	a := &Alerts{}
	a.Add(session.FlashSuccess, "Success", "one")
	a.Add(session.FlashError, "Error", "two")
	if n := len(a.Take()); n != 2 {
		t.Errorf("Take() = %d items, want 2", n)
	}
	if n := len(a.Take()); n != 0 {
		t.Errorf("second Take() = %d items, want 0", n)
	}
}

func TestAlerts_DropsRepeats(t *testing.T) {
	a := &Alerts{}
	a.Add(session.FlashError, "Error", api.UnexpectedErrorText)
	a.Add(session.FlashError, "Error", "Request failed with status code 500")
	a.Add(session.FlashError, "Error", api.UnexpectedErrorText)
	if got := a.Take(); len(got) != 2 {
		t.Errorf("Take() = %v, want 2 distinct alerts", got)
	}
}
