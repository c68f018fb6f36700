package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carried by the platform's access tokens. The subject user is
// transmitted in the user_id claim.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// VerifyToken decodes and verifies an HS256 token against the shared
// secret and returns the subject user id. It is a pure function of its
// inputs so it can be tested without a live connection. Any failure
// (malformed, bad signature, expired, missing subject) is an error; the
// caller decides whether that downgrades the principal or refuses the
// handshake.
func VerifyToken(secret []byte, token string) (int, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}

// SignToken issues a token for the given user, valid for ttl.
func SignToken(secret []byte, userID int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
