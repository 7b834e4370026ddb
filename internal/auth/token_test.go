package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	e, _, _ := newTestEngine(t)
	user := &User{ID: "u1", Role: "admin", Attrs: map[string]any{"email": "alice@example.com"}}

	token, err := e.GenerateAccessToken(user, "sess-1")
	require.NoError(t, err)

	claims, err := e.VerifyToken(token, false)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "sess-1", claims.SessionID)
	require.Equal(t, "admin", claims.User["role"])
	require.NotContains(t, claims.User, "password_hash")
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	e, _, _ := newTestEngine(t)

	// Same secret, same claims, different algorithm: must be rejected.
	claims := Claims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = e.VerifyToken(forged, false)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	e, _, clock := newTestEngine(t)
	token, err := e.GenerateAccessToken(&User{ID: "u1"}, "")
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)
	_, err = e.VerifyToken(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenTypeConfusionRejected(t *testing.T) {
	e, _, _ := newTestEngine(t)
	user := &User{ID: "u1", Role: "user"}

	access, err := e.GenerateAccessToken(user, "")
	require.NoError(t, err)
	refresh, err := e.GenerateRefreshToken(user)
	require.NoError(t, err)

	// A refresh token on the access path, and vice versa, is always
	// invalid, never a different error.
	_, err = e.VerifyToken(refresh, false)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = e.VerifyToken(access, true)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	e, _, _ := newTestEngine(t)
	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := e.VerifyToken(token, false)
		require.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestRefreshTokenUsesDedicatedSecret(t *testing.T) {
	e, _, _ := newTestEngine(t)
	refresh, err := e.GenerateRefreshToken(&User{ID: "u1"})
	require.NoError(t, err)

	// Verifying the refresh token against the access secret must fail:
	// the two secrets are independent.
	parsed, err := jwt.ParseWithClaims(refresh, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte("access-secret"), nil
	})
	require.True(t, err != nil || !parsed.Valid)

	claims, err := e.VerifyToken(refresh, true)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
}
