package api

import (
	"context"
	"errors"
)

// ErrEmptyToken is returned when the login reply carries no token.
var ErrEmptyToken = errors.New("login reply carried no token")

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is the reply of POST /auth/register.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

// AuthService calls the credential endpoints.
type AuthService struct {
	client *Client
}

// NewAuthService binds the service to client.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReply struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Login exchanges credentials for a bearer token.
// PRE: none; credentials are validated by the API
// POST: Returns a non-empty token, or an error (ErrEmptyToken or *Error)
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var reply loginReply
	if err := s.client.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &reply); err != nil {
		return "", err
	}
	if reply.Data.Token == "" {
		return "", ErrEmptyToken
	}
	return reply.Data.Token, nil
}

// Register creates an account. HTTP errors are returned unchanged.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	if err := s.client.Post(ctx, "/auth/register", req, &resp); err != nil {
		return RegisterResponse{}, err
	}
	return resp, nil
}
