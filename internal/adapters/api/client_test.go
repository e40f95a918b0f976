package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	"github.com/cedric28/spinbet-frontend/internal/adapters/http/perf"
	"github.com/cedric28/spinbet-frontend/internal/platform/requestctx"
)

// alertRecorder counts interceptor invocations.
type alertRecorder struct {
	calls []*api.Error
}

func (a *alertRecorder) handle(_ context.Context, err *api.Error) {
	a.calls = append(a.calls, err)
}

func newTestClient(t *testing.T, h http.Handler, opts ...api.Option) (*api.Client, *alertRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rec := &alertRecorder{}
	opts = append(opts, api.WithUnexpectedHandler(rec.handle))
	c, err := api.New(srv.URL, opts...)
	require.NoError(t, err)
	return c, rec
}

func statusHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "ftp://example.com", "http://"} {
		_, err := api.New(raw)
		assert.Error(t, err, "base url %q", raw)
	}
}

// TestInterceptor_ExpectedErrorsNeverAlert verifies 4xx responses pass through untouched.
func TestInterceptor_ExpectedErrorsNeverAlert(t *testing.T) {
	for _, status := range []int{400, 401, 404, 409, 422, 499} {
		c, rec := newTestClient(t, statusHandler(status, `{"message":"bad input"}`))

		err := c.Get(context.Background(), "/x", nil)

		require.Error(t, err)
		apiErr, ok := api.AsError(err)
		require.True(t, ok)
		assert.Equal(t, status, apiErr.StatusCode)
		assert.Equal(t, "bad input", apiErr.Message)
		assert.True(t, api.IsExpected(err))
		assert.Empty(t, rec.calls, "status %d must not alert", status)
	}
}

// TestInterceptor_UnexpectedErrorsAlertOnce verifies 5xx and odd statuses alert exactly once and still fail.
func TestInterceptor_UnexpectedErrorsAlertOnce(t *testing.T) {
	for _, status := range []int{500, 502, 503, 302, 399} {
		c, rec := newTestClient(t, statusHandler(status, `{}`))

		err := c.Post(context.Background(), "/x", map[string]string{"a": "b"}, nil)

		require.Error(t, err, "status %d", status)
		assert.False(t, api.IsExpected(err))
		require.Len(t, rec.calls, 1, "status %d", status)
		assert.Equal(t, status, rec.calls[0].StatusCode)
	}
}

func TestInterceptor_NetworkFailureAlerts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	rec := &alertRecorder{}
	c, err := api.New(base, api.WithUnexpectedHandler(rec.handle))
	require.NoError(t, err)

	err = c.Get(context.Background(), "/participation/user/1", nil)

	require.Error(t, err)
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.False(t, apiErr.HasResponse())
	assert.Len(t, rec.calls, 1)
}

func TestClient_SetupFailureIsMarked(t *testing.T) {
	c, rec := newTestClient(t, statusHandler(200, `{}`))

	err := c.Post(context.Background(), "/x", map[string]any{"bad": make(chan int)}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrRequestSetup))
	assert.Len(t, rec.calls, 1)
}

func TestClient_SendsJSONAndHeaders(t *testing.T) {
	var got *http.Request
	var body string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		buf, _ := io.ReadAll(r.Body)
		body = string(buf)
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	}))

	ctx := requestctx.WithRequestID(context.Background(), "req-1")
	var out struct {
		Data struct {
			OK bool `json:"ok"`
		} `json:"data"`
	}
	err := c.Put(ctx, "/participation/4", map[string]int{"n": 1}, &out, api.WithBearer("tok"))

	require.NoError(t, err)
	assert.True(t, out.Data.OK)
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/participation/4", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "req-1", got.Header.Get(requestctx.RequestIDHeader))
	assert.JSONEq(t, `{"n":1}`, body)
}

func TestClient_EmptyBodyIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, statusHandler(http.StatusNoContent, ""))
	var out map[string]any
	assert.NoError(t, c.Delete(context.Background(), "/participation/1", &out))
}

// TestClient_NonJSONSuccessIsNotAnError verifies a 2xx with a plain body
// resolves without tripping the interceptor.
func TestClient_NonJSONSuccessIsNotAnError(t *testing.T) {
	c, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Deleted"))
	}))

	ack, err := api.NewParticipationService(c).Delete(context.Background(), 3, "tok")

	require.NoError(t, err)
	assert.Empty(t, ack.Message)
	assert.Empty(t, rec.calls)
}

func TestClient_RecordsUpstreamTimings(t *testing.T) {
	collector := perf.NewCollector(10)
	c, _ := newTestClient(t, statusHandler(200, `{}`), api.WithCollector(collector))

	require.NoError(t, c.Get(context.Background(), "/participation/user/42", nil))
	_ = c.Get(context.Background(), "/participation/user/7", nil)

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 5)
	require.Len(t, snap.SlowestUpstream, 1)
	assert.Equal(t, "api.GET /participation/user/{id}", snap.SlowestUpstream[0].Path)
	assert.Equal(t, 2, snap.SlowestUpstream[0].Count)
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	c, rec := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), api.WithTimeout(20*time.Millisecond))
	defer close(release)

	err := c.Get(context.Background(), "/slow", nil)

	require.Error(t, err)
	assert.Len(t, rec.calls, 1)
}
