package orchestrators

import (
	"context"
	"log/slog"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
)

// Register error texts shown on the register page.
const (
	MsgRegistrationFailed = "Registration failed"
	MsgRegisterUnexpected = "An unexpected error occurred"
)

// AuthAPIForRegister defines the API interface needed by Register.
type AuthAPIForRegister interface {
	Register(ctx context.Context, req api.RegisterRequest) (api.RegisterResponse, error)
}

// RegisterInput carries input for the register orchestrator.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	AuthAPI AuthAPIForRegister
}

// ExecuteRegister creates an account through the API.
// PRE: input passed RegisterForm validation
// POST: The API accepted the account, or the API error is returned unchanged
func ExecuteRegister(ctx context.Context, input RegisterInput, deps RegisterDeps) (api.RegisterResponse, error) {
	resp, err := deps.AuthAPI.Register(ctx, api.RegisterRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		slog.Info("auth_event", "event", "register_failed", "email", input.Email, "error", err.Error())
		return api.RegisterResponse{}, err
	}
	slog.Info("auth_event", "event", "register_success", "email", input.Email, "user_id", resp.UserID)
	return resp, nil
}

// RegisterErrorText maps a register failure to the text the register page shows.
func RegisterErrorText(err error) string {
	apiErr, ok := api.AsError(err)
	if !ok || !apiErr.HasResponse() {
		return MsgRegisterUnexpected
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgRegistrationFailed
}
