package form

// Input names shared by the auth templates.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Minimum lengths, mirrored in the min= tags below.
const (
	MinPasswordLength = 6
	MinNameLength     = 6
)

// Messages
const (
	MsgInvalidEmail        = "Invalid email address"
	MsgLoginPasswordShort  = "Password must be at least 6 characters long"
	MsgPasswordShort       = "Password must be at least 6 characters"
	MsgInvalidName         = "Invalid Name"
	MsgPasswordsDoNotMatch = "Passwords do not match"
)

// LoginForm is the login schema.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"min=6"`
}

var loginMessages = map[string]string{
	FieldEmail:    MsgInvalidEmail,
	FieldPassword: MsgLoginPasswordShort,
}

// Validate checks email format and minimum password length.
// PRE: none
// POST: Returns empty Errors when the form may be submitted
func (f LoginForm) Validate() Errors {
	return check(f, loginMessages, sameName)
}

// RegisterForm is the registration schema.
// confirmPassword reports its length rule before the equality rule.
type RegisterForm struct {
	Name            string `form:"name" validate:"min=6"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"min=6,eqfield=Password"`
}

var registerMessages = map[string]string{
	FieldName:                         MsgInvalidName,
	FieldEmail:                        MsgInvalidEmail,
	FieldPassword:                     MsgPasswordShort,
	FieldConfirmPassword:              MsgPasswordShort,
	FieldConfirmPassword + ".eqfield": MsgPasswordsDoNotMatch,
}

// Validate checks every field, then that both passwords match.
// The mismatch error is attached to confirmPassword.
// PRE: none
// POST: Returns empty Errors when the form may be submitted
func (f RegisterForm) Validate() Errors {
	return check(f, registerMessages, sameName)
}
