package participation

import (
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is a participation entry as stored by the remote API.
// The remote copy is authoritative; local copies are display caches.
type Record struct {
	// ID is numeric; perf.RouteTemplate relies on that to aggregate row routes.
	ID         int     `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Percentage float64 `json:"percentage"`
	UserID     int     `json:"userId,omitempty"`
	CreatedAt  string  `json:"createdAt,omitempty"`
}

// Input is the payload sent on create and update. The API validates it;
// percentage is expected in 0-100 but not range checked anywhere.
type Input struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Percentage float64 `json:"percentage"`
	UserID     int     `json:"userId"`
}

// Label returns the chart label for the record, e.g. "Ann Lee".
func (r Record) Label() string {
	return FormatLabel(r.FirstName, r.LastName)
}

// PercentText renders the percentage the way the table shows it, e.g. "40%".
func (r Record) PercentText() string {
	return FormatPercent(r.Percentage) + "%"
}

// FormatPercent renders a percentage without trailing zeros.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// CapitalizeFirst upper-cases the first letter and leaves the rest untouched.
// A cases.Caser is stateful, so one is built per call.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

// FormatLabel joins capitalized first and last names with a single space.
func FormatLabel(firstName, lastName string) string {
	return CapitalizeFirst(firstName) + " " + CapitalizeFirst(lastName)
}

// Labels maps records to their chart labels, preserving order.
func Labels(records []Record) []string {
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.Label()
	}
	return labels
}

// Percentages maps records to their chart values, preserving order.
func Percentages(records []Record) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Percentage
	}
	return values
}
