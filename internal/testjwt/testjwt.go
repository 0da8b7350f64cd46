// Package testjwt builds signed access tokens for tests.
package testjwt

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const Secret = "test-secret"

// Token returns an HS256 access token with the storefront claims.
func Token(tb testing.TB, id int64, email string, roles ...string) string {
	tb.Helper()
	return Sign(tb, jwt.MapClaims{
		"sub":   strconv.FormatInt(id, 10),
		"email": email,
		"roles": roles,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
		"jti":   uuid.NewString(),
	})
}

func Sign(tb testing.TB, claims jwt.MapClaims) string {
	tb.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	if err != nil {
		tb.Fatalf("sign token: %v", err)
	}
	return signed
}
