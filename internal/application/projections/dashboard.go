package projections

import (
	"github.com/cedric28/spinbet-frontend/internal/domain/form"
	"github.com/cedric28/spinbet-frontend/internal/domain/participation"
)

// DashboardRow is one table row. Edit is set only on the row being edited.
type DashboardRow struct {
	ID        int
	FirstName string
	LastName  string
	Percent   string
	Edit      *form.ParticipationForm
}

// DashboardView is everything the dashboard template renders.
type DashboardView struct {
	Rows      []DashboardRow
	Chart     Chart
	EditingID int
}

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	Records   []participation.Record
	EditingID int                     // 0 means no row is in edit mode
	EditForm  *form.ParticipationForm // submitted values to re-show after a failed save
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	Colors ColorFunc // nil means RandomColor
}

// GetDashboard builds the table rows and pie chart from the current list.
// PRE: Records is the API's current list
// POST: At most one row has Edit set; an EditingID not in Records edits nothing
func GetDashboard(query GetDashboardQuery, deps GetDashboardDeps) DashboardView {
	colors := deps.Colors
	if colors == nil {
		colors = RandomColor
	}

	view := DashboardView{
		Rows:  make([]DashboardRow, 0, len(query.Records)),
		Chart: BuildChart(query.Records, colors),
	}
	for _, r := range query.Records {
		row := DashboardRow{
			ID:        r.ID,
			FirstName: participation.CapitalizeFirst(r.FirstName),
			LastName:  participation.CapitalizeFirst(r.LastName),
			Percent:   r.PercentText(),
		}
		if query.EditingID != 0 && r.ID == query.EditingID {
			f := form.FromRecord(r)
			if query.EditForm != nil && query.EditForm.RowID == r.ID {
				f = *query.EditForm
			}
			row.Edit = &f
			view.EditingID = r.ID
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}
