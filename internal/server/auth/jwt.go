// Package auth implements the credential primitives of the server: signed
// session tokens and salted password hashing.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/goblog/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims includes the registered claims plus the authenticated user's id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// GenerateToken mints a self-contained HS256 token carrying userID and an
// expiry of now+validityDuration. No server-side state is created; early
// invalidation is the revocation store's job.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry and returns the embedded user id
// and expiry time. Expired tokens yield common.ErrTokenExpired; malformed
// tokens and bad signatures both yield common.ErrInvalidToken, so callers
// cannot tell those cases apart.
func ParseToken(tokenString string, secretKey []byte) (string, time.Time, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", time.Time{}, common.ErrTokenExpired
		}
		return "", time.Time{}, common.ErrInvalidToken
	}

	if !token.Valid {
		return "", time.Time{}, common.ErrInvalidToken
	}

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return claims.UserID, expires, nil
}
