package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedric28/spinbet-frontend/internal/adapters/api"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("api-secret"))
	require.NoError(t, err)
	return s
}

func TestAuthService_Login(t *testing.T) {
	var sent map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_, _ = w.Write([]byte(`{"data":{"token":"abc.def.ghi"}}`))
	}))

	token, err := api.NewAuthService(c).Login(context.Background(), "ann@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
	assert.Equal(t, map[string]string{"email": "ann@example.com", "password": "secret1"}, sent)
}

func TestAuthService_Login_EmptyToken(t *testing.T) {
	c, _ := newTestClient(t, statusHandler(200, `{"data":{}}`))
	_, err := api.NewAuthService(c).Login(context.Background(), "a@b.co", "secret1")
	assert.ErrorIs(t, err, api.ErrEmptyToken)
}

func TestAuthService_Login_Rejected(t *testing.T) {
	c, rec := newTestClient(t, statusHandler(401, `{"message":"Invalid credentials"}`))
	_, err := api.NewAuthService(c).Login(context.Background(), "a@b.co", "wrong12")

	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, rec.calls)
}

func TestAuthService_Register(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, api.RegisterRequest{Name: "Annabel", Email: "a@b.co", Password: "secret"}, req)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"User registered","userId":"12"}`))
	}))

	resp, err := api.NewAuthService(c).Register(context.Background(),
		api.RegisterRequest{Name: "Annabel", Email: "a@b.co", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, api.RegisterResponse{Message: "User registered", UserID: "12"}, resp)
}

func TestAuthService_Register_PropagatesHTTPError(t *testing.T) {
	c, _ := newTestClient(t, statusHandler(409, `{"message":"Email already in use"}`))
	_, err := api.NewAuthService(c).Register(context.Background(), api.RegisterRequest{})

	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 409, apiErr.StatusCode)
	assert.Equal(t, "Email already in use", apiErr.Message)
}

func TestDecodeToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tests := []struct {
		name   string
		claims jwt.MapClaims
		wantID string
	}{
		{"numeric id", jwt.MapClaims{"id": 7, "email": "ann@example.com", "exp": exp.Unix()}, "7"},
		{"string id", jwt.MapClaims{"id": "7", "email": "ann@example.com", "exp": exp.Unix()}, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := api.DecodeToken(signToken(t, tt.claims))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, claims.ID)
			assert.Equal(t, "ann@example.com", claims.Email)
			assert.True(t, claims.ExpiresAt.Equal(exp))
		})
	}
}

// TestDecodeToken_IgnoresSignature verifies a token signed with an unknown key still decodes.
func TestDecodeToken_IgnoresSignature(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 3}).
		SignedString([]byte("someone-elses-key"))
	require.NoError(t, err)

	claims, err := api.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "3", claims.ID)
	assert.True(t, claims.ExpiresAt.IsZero())
}

func TestDecodeToken_Errors(t *testing.T) {
	_, err := api.DecodeToken("not-a-jwt")
	assert.Error(t, err)

	_, err = api.DecodeToken(signToken(t, jwt.MapClaims{"email": "a@b.co"}))
	assert.Error(t, err, "missing id must fail")
}
