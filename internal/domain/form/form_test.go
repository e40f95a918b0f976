package form_test

import (
	"net/url"
	"testing"

	"github.com/cedric28/spinbet-frontend/internal/domain/form"
	"github.com/cedric28/spinbet-frontend/internal/domain/participation"
)

// TestLoginForm_Validate tests the login schema.
func TestLoginForm_Validate(t *testing.T) {
	tests := []struct {
		name      string
		form      form.LoginForm
		wantField map[string]string
	}{
		{"valid", form.LoginForm{Email: "ann@example.com", Password: "secret1"}, nil},
		{"bad email", form.LoginForm{Email: "ann", Password: "secret1"},
			map[string]string{form.FieldEmail: form.MsgInvalidEmail}},
		{"display name email rejected", form.LoginForm{Email: "Ann <ann@example.com>", Password: "secret1"},
			map[string]string{form.FieldEmail: form.MsgInvalidEmail}},
		{"no tld", form.LoginForm{Email: "ann@example", Password: "secret1"},
			map[string]string{form.FieldEmail: form.MsgInvalidEmail}},
		{"short password", form.LoginForm{Email: "ann@example.com", Password: "12345"},
			map[string]string{form.FieldPassword: form.MsgLoginPasswordShort}},
		{"both wrong", form.LoginForm{},
			map[string]string{form.FieldEmail: form.MsgInvalidEmail, form.FieldPassword: form.MsgLoginPasswordShort}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.form.Validate()
			if len(errs) != len(tt.wantField) {
				t.Fatalf("Validate() = %v, want %v", errs, tt.wantField)
			}
			for field, msg := range tt.wantField {
				if errs.Get(field) != msg {
					t.Errorf("error[%s] = %q, want %q", field, errs.Get(field), msg)
				}
			}
		})
	}
}

// TestRegisterForm_PasswordMismatch verifies the mismatch is reported on confirmPassword only.
func TestRegisterForm_PasswordMismatch(t *testing.T) {
	f := form.RegisterForm{
		Name:            "Annabel Lee",
		Email:           "ann@example.com",
		Password:        "secret12",
		ConfirmPassword: "secret13",
	}
	errs := f.Validate()
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want exactly one error", errs)
	}
	if errs.Get(form.FieldConfirmPassword) != form.MsgPasswordsDoNotMatch {
		t.Errorf("confirmPassword error = %q", errs.Get(form.FieldConfirmPassword))
	}
}

// TestRegisterForm_Validate tests the remaining register rules.
func TestRegisterForm_Validate(t *testing.T) {
	valid := form.RegisterForm{Name: "Annabel", Email: "a@b.co", Password: "secret", ConfirmPassword: "secret"}
	if errs := valid.Validate(); errs.Any() {
		t.Fatalf("valid form rejected: %v", errs)
	}

	short := form.RegisterForm{Name: "Ann", Email: "a@b.co", Password: "abc", ConfirmPassword: "abc"}
	errs := short.Validate()
	if errs.Get(form.FieldName) != form.MsgInvalidName {
		t.Errorf("name error = %q", errs.Get(form.FieldName))
	}
	if errs.Get(form.FieldPassword) != form.MsgPasswordShort {
		t.Errorf("password error = %q", errs.Get(form.FieldPassword))
	}
	// The length rule is reported before the equality rule.
	if errs.Get(form.FieldConfirmPassword) != form.MsgPasswordShort {
		t.Errorf("confirmPassword error = %q", errs.Get(form.FieldConfirmPassword))
	}
}

// TestParticipationForm_AddForm verifies the add form uses bare field names.
func TestParticipationForm_AddForm(t *testing.T) {
	values := url.Values{"firstName": {"ann"}, "lastName": {"lee"}, "percentage": {"40"}}
	in, errs := form.ParseParticipation(values, 0).Input(7)
	if errs.Any() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := participation.Input{FirstName: "ann", LastName: "lee", Percentage: 40, UserID: 7}
	if in != want {
		t.Errorf("Input = %+v, want %+v", in, want)
	}
}

// TestParticipationForm_RowScopedErrors verifies edit errors are keyed by row id.
func TestParticipationForm_RowScopedErrors(t *testing.T) {
	values := url.Values{
		"firstName_3":  {""},
		"lastName_3":   {"lee"},
		"percentage_3": {"abc"},
		"firstName_4":  {"other row"},
	}
	_, errs := form.ParseParticipation(values, 3).Input(1)
	if errs.Get("firstName_3") != form.MsgFirstNameRequired {
		t.Errorf("firstName_3 error = %q", errs.Get("firstName_3"))
	}
	if errs.Get("percentage_3") != form.MsgPercentageNotANumber {
		t.Errorf("percentage_3 error = %q", errs.Get("percentage_3"))
	}
	if errs.Get("firstName_4") != "" || errs.Get("firstName") != "" {
		t.Errorf("errors leaked outside row 3: %v", errs)
	}
}

// TestParticipationForm_MissingPercentage verifies the required message.
func TestParticipationForm_MissingPercentage(t *testing.T) {
	_, errs := form.ParticipationForm{FirstName: "a", LastName: "b"}.Input(1)
	if errs.Get(form.FieldPercentage) != form.MsgPercentageRequired {
		t.Errorf("percentage error = %q", errs.Get(form.FieldPercentage))
	}
}

// TestFromRecord verifies edit prefill.
func TestFromRecord(t *testing.T) {
	f := form.FromRecord(participation.Record{ID: 9, FirstName: "ann", LastName: "lee", Percentage: 12.5})
	if f.Field(form.FieldLastName) != "lastName_9" {
		t.Errorf("Field = %q", f.Field(form.FieldLastName))
	}
	if f.Percentage != "12.5" {
		t.Errorf("Percentage = %q", f.Percentage)
	}
}

// TestParticipationForm_BlankNamesRequired verifies whitespace-only names fail.
func TestParticipationForm_BlankNamesRequired(t *testing.T) {
	_, errs := form.ParticipationForm{FirstName: "  ", LastName: "\t", Percentage: "10"}.Input(1)
	if errs.Get(form.FieldFirstName) != form.MsgFirstNameRequired {
		t.Errorf("firstName error = %q", errs.Get(form.FieldFirstName))
	}
	if errs.Get(form.FieldLastName) != form.MsgLastNameRequired {
		t.Errorf("lastName error = %q", errs.Get(form.FieldLastName))
	}
}

// TestParticipationForm_PercentageParsing verifies which numbers are accepted.
func TestParticipationForm_PercentageParsing(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr string
	}{
		{"40", 40, ""},
		{" 12.5 ", 12.5, ""},
		{"-3", -3, ""},
		{"150", 150, ""},
		{"1e2", 100, ""},
		{"abc", 0, form.MsgPercentageNotANumber},
		{"NaN", 0, form.MsgPercentageNotANumber},
		{"Inf", 0, form.MsgPercentageNotANumber},
		{"", 0, form.MsgPercentageRequired},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			in, errs := form.ParticipationForm{FirstName: "a", LastName: "b", Percentage: tt.raw}.Input(1)
			if got := errs.Get(form.FieldPercentage); got != tt.wantErr {
				t.Fatalf("percentage error = %q, want %q", got, tt.wantErr)
			}
			if tt.wantErr == "" && in.Percentage != tt.want {
				t.Errorf("Percentage = %v, want %v", in.Percentage, tt.want)
			}
		})
	}
}

// TestRegisterForm_LengthCountsCharacters verifies multi-byte names are
// measured in characters.
func TestRegisterForm_LengthCountsCharacters(t *testing.T) {
	f := form.RegisterForm{Name: "Élodie", Email: "e@b.co", Password: "ñññññ1", ConfirmPassword: "ñññññ1"}
	if errs := f.Validate(); errs.Any() {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
	f.Name = "Éloï"
	if got := f.Validate().Get(form.FieldName); got != form.MsgInvalidName {
		t.Errorf("name error = %q, want %q", got, form.MsgInvalidName)
	}
}
