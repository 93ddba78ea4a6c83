package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgrijalva/jwt-go"
)

var (
	ErrMissingBearer = errors.New("invalid authorization header")
	ErrInvalidToken  = errors.New("invalid token")
)

const bearerPrefix = "Bearer "

func Sign(secret string, claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify checks an HS256 token signed with secret and returns its claims.
// exp, nbf and iat are validated when present.
func Verify(secret string, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyHeader verifies an Authorization header of the form "Bearer <token>".
func VerifyHeader(secret string, header string) (jwt.MapClaims, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, ErrMissingBearer
	}

	return Verify(secret, header[len(bearerPrefix):])
}
