package usertoken

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Anonymous user credentials: HS256 JWTs carrying only issue/expiry times
// and a random nonce. The token is an opaque handle, not an identity claim;
// the user row is resolved by looking the raw token string up in storage.

var ErrEmptyToken = errors.New("empty token")

type Claims struct {
	Nonce int64 `json:"nonce"`
	jwt.RegisteredClaims
}

func Issue(secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Nonce: rand.Int63(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign user token failed: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry only.
func Verify(secret, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	_, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("parse user token failed: %w", err)
	}
	return nil
}
