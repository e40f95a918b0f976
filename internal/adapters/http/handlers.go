// Package web serves the participation dashboard pages.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
	"github.com/cedric28/spinbet-frontend/internal/adapters/http/middleware"
	"github.com/cedric28/spinbet-frontend/internal/application/orchestrators"
	"github.com/cedric28/spinbet-frontend/internal/application/projections"
	"github.com/cedric28/spinbet-frontend/internal/domain/form"
	"github.com/cedric28/spinbet-frontend/internal/domain/session"
	"github.com/cedric28/spinbet-frontend/internal/platform/requestctx"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var staticFiles, _ = fs.Sub(staticFS, "static")

// pageNames are the templates rendered inside layout.html.
var pageNames = []string{"login.html", "register.html", "dashboard.html", "confirm.html", "loading.html"}

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var funcMap = template.FuncMap{
	"markdown":         renderMarkdown,
	"input":            inputFor,
	"chartBorderColor": func() string { return projections.ChartBorderColor },
	"chartBorderWidth": func() int { return projections.ChartBorderWidth },
}

// inputField is what the "input" partial renders.
type inputField struct {
	Name        string
	Value       string
	Placeholder string
	Type        string
	Error       string
	Form        string // id of the owning form when the input sits outside it
}

// inputFor builds the input for one field of a participation form.
func inputFor(f form.ParticipationForm, base, placeholder string, errs form.Errors, formID string) inputField {
	in := inputField{
		Name:        f.Field(base),
		Placeholder: placeholder,
		Type:        "text",
		Form:        formID,
	}
	switch base {
	case form.FieldFirstName:
		in.Value = f.FirstName
	case form.FieldLastName:
		in.Value = f.LastName
	case form.FieldPercentage:
		in.Value = f.Percentage
		in.Type = "number"
	}
	in.Error = errs.Get(in.Name)
	return in
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tpl
	}
	return pages, nil
}

// pageData is what layout.html receives; Content is the page's own data.
type pageData struct {
	Title     string
	User      *session.User
	Alerts    []session.Flash
	CSRFField template.HTML
	LoginPath string
	Content   any
}

// render executes a page into a buffer so a template error never leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, content any) {
	tpl, ok := s.pages[name]
	if !ok {
		internalError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}

	data := pageData{
		Title:     title,
		Alerts:    s.takeAlerts(r),
		CSRFField: csrf.TemplateField(r),
		LoginPath: s.opts.LoginPath,
		Content:   content,
	}
	if sess, _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		user := sess.User
		data.User = &user
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, r, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// takeAlerts drains the session flashes queued by an earlier redirect, then
// the alerts raised while serving this request.
func (s *Server) takeAlerts(r *http.Request) []session.Flash {
	ctx := r.Context()
	var out []session.Flash
	if sess, token, ok := middleware.GetSessionFromContext(ctx); ok && len(sess.Flashes) > 0 {
		out = sess.TakeFlashes()
		if err := s.deps.Sessions.Update(ctx, token, sess); err != nil {
			slog.Warn("flash_clear_failed", "error", err, "request_id", requestctx.RequestIDFromContext(ctx))
		}
	}
	return append(out, middleware.AlertsFromContext(ctx).Take()...)
}

// redirect sends a 303 and carries pending alerts over in the session, if there is one.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	ctx := r.Context()
	if alerts := middleware.AlertsFromContext(ctx).Take(); len(alerts) > 0 {
		if sess, token, ok := middleware.GetSessionFromContext(ctx); ok {
			sess.Flashes = append(sess.Flashes, alerts...)
			if err := s.deps.Sessions.Update(ctx, token, sess); err != nil {
				slog.Warn("flash_save_failed", "error", err, "request_id", requestctx.RequestIDFromContext(ctx))
			}
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// alertError queues the error popup for a failed API call.
func alertError(r *http.Request, err error) {
	middleware.AlertsFromContext(r.Context()).Add(session.FlashError, "Error", orchestrators.MutationErrorText(err))
}

// failureStatus maps an API failure to the status of the re-rendered page.
func failureStatus(err error) int {
	if apiErr, ok := api.AsError(err); ok && apiErr.Expected() {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "error", err.Error(), "request_id", requestctx.RequestIDFromContext(r.Context()))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleLoading is the placeholder shown while the session cannot be resolved.
func (s *Server) handleLoading(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusServiceUnavailable, "loading.html", "Loading", nil)
}

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	switch middleware.StatusFromContext(r.Context()) {
	case session.StatusAuthenticated:
		s.redirect(w, r, "/dashboard")
	case session.StatusLoading:
		w.Header().Set("Retry-After", "1")
		s.handleLoading(w, r)
	default:
		s.redirect(w, r, s.opts.LoginPath)
	}
}
