package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the identity carried in the API's JWT payload.
type TokenClaims struct {
	ID        string
	Email     string
	Name      string
	Image     string
	ExpiresAt time.Time // zero when the token has no exp claim
}

// DecodeToken reads the payload of token without verifying its signature.
// The API signed it and remains the only authority that checks it.
// PRE: token is a three-part compact JWT
// POST: Returns claims with a non-empty ID, or an error
func DecodeToken(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser(jwt.WithJSONNumber()).ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("decode token: %w", err)
	}

	id, err := claimID(claims["id"])
	if err != nil {
		return TokenClaims{}, err
	}

	out := TokenClaims{
		ID:    id,
		Email: stringClaim(claims, "email"),
		Name:  stringClaim(claims, "name"),
		Image: stringClaim(claims, "image"),
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenClaims{}, fmt.Errorf("decode token exp: %w", err)
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// claimID accepts the id claim as a string or a JSON number.
func claimID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case json.Number:
		return id.String(), nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("decode token: missing id claim")
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
