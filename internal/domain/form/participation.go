package form

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cedric28/spinbet-frontend/internal/domain/participation"
)

// Base input names of the participation form.
const (
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldPercentage = "percentage"
)

// Messages
const (
	MsgFirstNameRequired    = "First name is required"
	MsgLastNameRequired     = "Last name is required"
	MsgPercentageRequired   = "Participation is required"
	MsgPercentageNotANumber = "Participation must be a number"
)

// RowField returns the input name of base for the row being edited.
// Row 0 is the add form and uses the bare name.
func RowField(base string, rowID int) string {
	if rowID == 0 {
		return base
	}
	return base + "_" + strconv.Itoa(rowID)
}

// ParticipationForm is the add form (RowID 0) or one row's inline edit form.
type ParticipationForm struct {
	RowID      int
	FirstName  string
	LastName   string
	Percentage string
}

// ParseParticipation reads the field set of rowID from submitted values.
func ParseParticipation(values url.Values, rowID int) ParticipationForm {
	return ParticipationForm{
		RowID:      rowID,
		FirstName:  values.Get(RowField(FieldFirstName, rowID)),
		LastName:   values.Get(RowField(FieldLastName, rowID)),
		Percentage: values.Get(RowField(FieldPercentage, rowID)),
	}
}

// FromRecord prefills an edit form with the record's current values.
func FromRecord(r participation.Record) ParticipationForm {
	return ParticipationForm{
		RowID:      r.ID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Percentage: participation.FormatPercent(r.Percentage),
	}
}

// Field returns the input name of base for this form's row.
func (f ParticipationForm) Field(base string) string {
	return RowField(base, f.RowID)
}

// participationSchema is the trimmed form as validated.
type participationSchema struct {
	FirstName  string `form:"firstName" validate:"required"`
	LastName   string `form:"lastName" validate:"required"`
	Percentage string `form:"percentage" validate:"required,finite"`
}

var participationMessages = map[string]string{
	FieldFirstName:                MsgFirstNameRequired,
	FieldLastName:                 MsgLastNameRequired,
	FieldPercentage + ".required": MsgPercentageRequired,
	FieldPercentage + ".finite":   MsgPercentageNotANumber,
}

// Input validates the form and converts it to an API payload for userID.
// Names are sent as typed; only the checks trim them.
// PRE: none
// POST: Errors is empty iff the returned Input may be sent
func (f ParticipationForm) Input(userID int) (participation.Input, Errors) {
	schema := participationSchema{
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Percentage: strings.TrimSpace(f.Percentage),
	}
	errs := check(schema, participationMessages, f.Field)

	pct, _ := strconv.ParseFloat(schema.Percentage, 64)
	return participation.Input{
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Percentage: pct,
		UserID:     userID,
	}, errs
}
