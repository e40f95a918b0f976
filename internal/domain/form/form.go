// Package form holds the typed schemas behind the login, register and
// participation forms. Each schema validates itself and reports errors keyed
// by the HTML input name so templates can render them under the field.
package form

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps an input name to its first validation message.
type Errors map[string]string

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = msg
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	if e == nil {
		return ""
	}
	return e[field]
}

// Any reports whether at least one field failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their input name rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("finite", isFinite); err != nil {
		panic(err)
	}
	return v
}

// isFinite accepts a string that parses to a finite float.
func isFinite(fl validator.FieldLevel) bool {
	n, err := strconv.ParseFloat(fl.Field().String(), 64)
	return err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
}

// check runs the validate tags of schema and translates each failure.
// messages is keyed by "input.tag", falling back to "input". name maps the
// input name to the key used in Errors.
// PRE: schema is a struct value with validate tags
// POST: Returns one message per failing input, in field order
func check(schema any, messages map[string]string, name func(string) string) Errors {
	errs := Errors{}
	err := validate.Struct(schema)
	if err == nil {
		return errs
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		// Only a non-struct schema gets here.
		panic(err)
	}
	for _, fe := range failures {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = messages[fe.Field()]
		}
		errs.Add(name(fe.Field()), msg)
	}
	return errs
}

func sameName(s string) string { return s }
