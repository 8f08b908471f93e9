// Package auth issues and checks the edit capability tokens handed out
// after a successful per-record password check.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the edit token claims: the record id as subject and a fixed
// scope.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// GenerateEditToken signs an HS256 token granting edit rights on id until
// now+validity.
func GenerateEditToken(id string, secretKey []byte, validity time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Scope: common.EditScope,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, exp, nil
}

// ParseEditToken verifies the signature and expiry of tokenString.
// An expired token yields common.ErrTokenExpired, anything else that fails
// validation yields common.ErrInvalidToken.
func ParseEditToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Allows reports whether claims grant edit rights on id.
func (c *Claims) Allows(id string) bool {
	return c != nil && c.Scope == common.EditScope && c.Subject == id
}
