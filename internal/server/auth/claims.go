package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SubjectFromToken extracts the subject identity (the "username" claim, which
// carries the account email) from an access token's payload.
//
// The signature is NOT checked here. The token has already been accepted by
// the identity provider during the online check; this is a local decode only.
func SubjectFromToken(tokenString string) (string, error) {
	claims := jwt.MapClaims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("token decode: %w", err)
	}

	subject, ok := claims["username"].(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("token has no username claim")
	}

	return subject, nil
}
