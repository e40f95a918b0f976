// Package api is the adapter for the remote participation API.
//
// Every call goes through Client, which is bound to one base URL and owns the
// error interceptor: 4xx responses are returned to the caller untouched, while
// network failures and every other status are reported once to the configured
// UnexpectedHandler before being returned. There are no retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/cedric28/spinbet-frontend/internal/adapters/http/perf"
	"github.com/cedric28/spinbet-frontend/internal/platform/requestctx"
)

// UnexpectedErrorText is the generic alert raised for non-4xx failures.
const UnexpectedErrorText = "An unexpected error occurred."

// DefaultSlowCallMs is the default threshold for slow upstream call warnings.
const DefaultSlowCallMs = 500

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

const tracerName = "github.com/cedric28/spinbet-frontend/internal/adapters/api"

// ErrRequestSetup marks failures that happened before anything was sent.
var ErrRequestSetup = errors.New("request setup failed")

// Error is returned for every failed call.
type Error struct {
	Method     string
	Path       string
	StatusCode int    // 0 when no response was received
	Message    string // "message" from the JSON error body, if any
	Err        error  // underlying transport, setup or decode error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api %s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Expected reports whether the API answered with a 4xx status.
func (e *Error) Expected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// HasResponse reports whether the API answered at all.
func (e *Error) HasResponse() bool {
	return e.StatusCode != 0
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsExpected reports whether err is a 4xx answer from the API.
func IsExpected(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Expected()
}

// UnexpectedHandler surfaces an unexpected failure to the user. It runs once
// per failed call, on the caller's goroutine, before the error is returned.
type UnexpectedHandler func(ctx context.Context, err *Error)

// Client is a JSON HTTP client bound to a fixed base URL.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	onUnexpected UnexpectedHandler
	collector    *perf.Collector
	tracer       trace.Tracer
	slowMs       float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a per-call timeout. Zero keeps the net/http default (none).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithUnexpectedHandler installs the global interceptor callback.
func WithUnexpectedHandler(h UnexpectedHandler) Option {
	return func(c *Client) { c.onUnexpected = h }
}

// WithCollector records every call into the perf collector.
func WithCollector(collector *perf.Collector) Option {
	return func(c *Client) { c.collector = collector }
}

// WithSlowThreshold sets the duration above which calls log at WARN.
func WithSlowThreshold(ms int) Option {
	return func(c *Client) {
		if ms > 0 {
			c.slowMs = float64(ms)
		}
	}
}

// New creates a client for baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a client whose calls resolve paths against baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api base url %q has no host", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		tracer:     otel.Tracer(tracerName),
		slowMs:     DefaultSlowCallMs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// RequestOption adjusts an outgoing request.
type RequestOption func(*http.Request)

// WithBearer sets "Authorization: Bearer <token>".
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// Get sends a GET and decodes the reply into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts)
}

// Post sends body as JSON and decodes the reply into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts)
}

// Put sends body as JSON and decodes the reply into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts)
}

// Delete sends a DELETE and decodes the reply into out.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts)
}

// do performs exactly one attempt and runs the interceptor on failure.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts []RequestOption) error {
	route := perf.RouteTemplate(path)
	ctx, span := c.tracer.Start(ctx, "api."+method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	status, apiErr := c.send(ctx, method, path, body, out, opts)
	c.observe(method, path, route, status, start, apiErr)

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if apiErr == nil {
		return nil
	}
	span.RecordError(apiErr)
	span.SetStatus(codes.Error, apiErr.Error())
	return c.intercept(ctx, apiErr)
}

// intercept reports everything outside [400,500) and always hands the error back.
func (c *Client) intercept(ctx context.Context, err *Error) error {
	if !err.Expected() {
		slog.Error("api_unexpected_error",
			"method", err.Method,
			"path", err.Path,
			"status", err.StatusCode,
			"error", err.Error(),
			"request_id", requestctx.RequestIDFromContext(ctx),
		)
		if c.onUnexpected != nil {
			c.onUnexpected(ctx, err)
		}
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, opts []RequestOption) (int, *Error) {
	fail := func(status int, msg string, err error) (int, *Error) {
		return status, &Error{Method: method, Path: path, StatusCode: status, Message: msg, Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(0, "", fmt.Errorf("%w: encode body: %v", ErrRequestSetup, err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return fail(0, "", fmt.Errorf("%w: %v", ErrRequestSetup, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestctx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(requestctx.RequestIDHeader, id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, errorMessage(data), nil)
	}

	// A 2xx always succeeds. A body that is not JSON (a plain "Deleted", say)
	// leaves out at its zero value.
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			slog.WarnContext(ctx, "api_response_not_json",
				"method", method,
				"path", path,
				"status", resp.StatusCode,
				"content_type", resp.Header.Get("Content-Type"),
				"error", err,
			)
		}
	}
	return resp.StatusCode, nil
}

// observe logs the call and records it for the perf snapshot.
func (c *Client) observe(method, path, route string, status int, start time.Time, err *Error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	attrs := []any{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", durationMs,
	}
	switch {
	case durationMs >= c.slowMs:
		slog.Warn("slow_api_call", attrs...)
	case err != nil:
		slog.Info("api_call_failed", attrs...)
	default:
		slog.Debug("api_call", attrs...)
	}

	c.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Path:       "api." + method + " " + route,
		StatusCode: status,
		DurationMs: durationMs,
		Timestamp:  start,
	})
}

// errorMessage pulls {"message": "..."} out of an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}
