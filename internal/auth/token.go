package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatehouse.org/internal/obs"
)

const (
	issuer = "gatehouse"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the signed token contents. TokenType discriminates access
// from refresh tokens; presenting one as the other is a verification
// failure, not a different error.
type Claims struct {
	TokenType string         `json:"token_type"`
	SessionID string         `json:"session_id,omitempty"`
	User      map[string]any `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a short-lived token embedding the
// sanitized user snapshot and, when a session backs the token, the
// session id.
func (e *Engine) GenerateAccessToken(user *User, sessionID string) (string, error) {
	return e.sign(Claims{
		TokenType: tokenTypeAccess,
		SessionID: sessionID,
		User:      user.Snapshot(),
	}, user.ID, e.accessSecret, e.accessTTL)
}

// GenerateRefreshToken signs a longer-lived token carrying only the
// subject and the refresh discriminator.
func (e *Engine) GenerateRefreshToken(user *User) (string, error) {
	return e.sign(Claims{
		TokenType: tokenTypeRefresh,
	}, user.ID, e.refreshSecret, e.refreshTTL)
}

func (e *Engine) sign(claims Claims, subject string, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	now := e.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken verifies signature, expiry, algorithm, and the type
// discriminator using the matching secret. Every failure mode is
// reported uniformly as ErrInvalidToken.
func (e *Engine) VerifyToken(token string, isRefresh bool) (*Claims, error) {
	claims, err := e.verifyToken(token, isRefresh)
	obs.ObserveTokenVerification(err == nil)
	return claims, err
}

func (e *Engine) verifyToken(token string, isRefresh bool) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	secret := e.accessSecret
	wantType := tokenTypeAccess
	if isRefresh {
		secret = e.refreshSecret
		wantType = tokenTypeRefresh
	}
	if len(secret) == 0 {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		// Algorithm pinned to HS256; anything else is rejected outright.
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return e.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
