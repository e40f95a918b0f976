package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cedric28/spinbet-frontend/internal/adapters/http/middleware"
	"github.com/cedric28/spinbet-frontend/internal/application/orchestrators"
	"github.com/cedric28/spinbet-frontend/internal/application/projections"
	"github.com/cedric28/spinbet-frontend/internal/domain/form"
	"github.com/cedric28/spinbet-frontend/internal/domain/participation"
	"github.com/cedric28/spinbet-frontend/internal/domain/session"
)

// Popup titles
const (
	titleSuccess = "Success"
	titleDeleted = "Deleted!"
)

// dashboardPage is the content of dashboard.html.
type dashboardPage struct {
	View   projections.DashboardView
	Add    form.ParticipationForm
	Errors form.Errors
	Intro  string
}

// dashboardState is what one dashboard render is built from.
type dashboardState struct {
	records   []participation.Record
	editingID int
	editForm  *form.ParticipationForm
	add       form.ParticipationForm
	errs      form.Errors
}

func (s *Server) participationDeps() orchestrators.ParticipationDeps {
	return orchestrators.ParticipationDeps{API: s.deps.Participation}
}

// actor resolves the caller from the session RequireSession already loaded.
func (s *Server) actor(w http.ResponseWriter, r *http.Request) (orchestrators.Actor, bool) {
	sess, _, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		s.redirect(w, r, s.opts.LoginPath)
		return orchestrators.Actor{}, false
	}
	actor, err := orchestrators.ActorFromUser(sess.User)
	if err != nil {
		internalError(w, r, err)
		return orchestrators.Actor{}, false
	}
	return actor, true
}

// list fetches the current records; a failure is shown as a popup over an empty table.
func (s *Server) list(r *http.Request, actor orchestrators.Actor) []participation.Record {
	records, err := orchestrators.ExecuteListParticipation(r.Context(), actor, s.participationDeps())
	if err != nil {
		alertError(r, err)
		return nil
	}
	return records
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, st dashboardState) {
	view := projections.GetDashboard(projections.GetDashboardQuery{
		Records:   st.records,
		EditingID: st.editingID,
		EditForm:  st.editForm,
	}, projections.GetDashboardDeps{Colors: s.deps.Colors})

	s.render(w, r, status, "dashboard.html", "Dashboard", dashboardPage{
		View:   view,
		Add:    st.add,
		Errors: st.errs,
		Intro:  s.opts.DashboardIntro,
	})
}

// afterMutation queues the popups for a create, update or delete and picks the
// list to show. ok is false when the mutation itself failed.
func (s *Server) afterMutation(r *http.Request, actor orchestrators.Actor, title string, result orchestrators.MutationResult, err error) (records []participation.Record, status int, ok bool) {
	alerts := middleware.AlertsFromContext(r.Context())
	switch {
	case err == nil:
		alerts.Add(session.FlashSuccess, title, result.Message)
		return result.Records, http.StatusOK, true
	case errors.Is(err, orchestrators.ErrRefreshFailed):
		alerts.Add(session.FlashSuccess, title, result.Message)
		alertError(r, err)
		return nil, http.StatusOK, true
	default:
		alertError(r, err)
		return s.list(r, actor), failureStatus(err), false
	}
}

// recordID reads the {id} path segment.
func recordID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

// handleDashboard handles GET /dashboard; ?edit=<id> puts one row in edit mode.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	editing, _ := strconv.Atoi(r.URL.Query().Get("edit"))
	s.renderDashboard(w, r, http.StatusOK, dashboardState{
		records:   s.list(r, actor),
		editingID: editing,
	})
}

// handleCreateParticipation handles POST /dashboard/participations
func (s *Server) handleCreateParticipation(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	f := form.ParseParticipation(r.PostForm, 0)
	in, errs := f.Input(actor.UserID)
	if errs.Any() {
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, dashboardState{
			records: s.list(r, actor),
			add:     f,
			errs:    errs,
		})
		return
	}

	result, err := orchestrators.ExecuteCreateParticipation(r.Context(), orchestrators.CreateParticipationInput{
		Actor: actor,
		Input: in,
	}, s.participationDeps())
	records, status, _ := s.afterMutation(r, actor, titleSuccess, result, err)
	s.renderDashboard(w, r, status, dashboardState{records: records})
}

// handleUpdateParticipation handles POST /dashboard/participations/{id}
func (s *Server) handleUpdateParticipation(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	f := form.ParseParticipation(r.PostForm, id)
	in, errs := f.Input(actor.UserID)
	if errs.Any() {
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, dashboardState{
			records:   s.list(r, actor),
			editingID: id,
			editForm:  &f,
			errs:      errs,
		})
		return
	}

	result, err := orchestrators.ExecuteUpdateParticipation(r.Context(), orchestrators.UpdateParticipationInput{
		Actor: actor,
		ID:    id,
		Input: in,
	}, s.participationDeps())
	records, status, updated := s.afterMutation(r, actor, titleSuccess, result, err)

	st := dashboardState{records: records}
	if !updated {
		// The row stays in edit mode with what the user typed.
		st.editingID = id
		st.editForm = &f
	}
	s.renderDashboard(w, r, status, st)
}

// handleDeleteConfirm handles GET /dashboard/participations/{id}/delete
func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "confirm.html", "Delete", confirmPage{
		Heading:      "Are you sure?",
		Text:         "You won't be able to revert this!",
		Action:       "/dashboard/participations/" + strconv.Itoa(id) + "/delete",
		ConfirmLabel: "Yes, delete it!",
		CancelURL:    "/dashboard",
	})
}

// handleDeleteParticipation handles POST /dashboard/participations/{id}/delete
func (s *Server) handleDeleteParticipation(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}

	result, err := orchestrators.ExecuteDeleteParticipation(r.Context(), orchestrators.DeleteParticipationInput{
		Actor: actor,
		ID:    id,
	}, s.participationDeps())
	records, status, _ := s.afterMutation(r, actor, titleDeleted, result, err)
	s.renderDashboard(w, r, status, dashboardState{records: records})
}

// handleChartJSON handles GET /dashboard/chart.json
func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	records, err := orchestrators.ExecuteListParticipation(r.Context(), actor, s.participationDeps())
	if err != nil {
		writeJSON(w, failureStatus(err), map[string]string{"message": orchestrators.MutationErrorText(err)})
		return
	}
	colors := s.deps.Colors
	if colors == nil {
		colors = projections.RandomColor
	}
	writeJSON(w, http.StatusOK, projections.BuildChart(records, colors).Data())
}
