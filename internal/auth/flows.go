package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gatehouse.org/internal/apperr"
	"gatehouse.org/internal/ids"
	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/store/pg"
)

const bearerPrefix = "Bearer "

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login verifies an identifier/secret pair, creates a session, and
// issues a token pair. Identifier-vs-secret failures are
// indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if strings.TrimSpace(identifier) == "" || secret == "" {
		return nil, apperr.New(http.StatusBadRequest, KeyValidation)
	}
	if err := e.ensureReady(ctx); err != nil {
		return nil, apperr.New(http.StatusInternalServerError, KeyNotConfigured)
	}
	ident := e.Identity()
	if ident.SecretField == "" || len(ident.IdentifierFields) == 0 {
		return nil, apperr.New(http.StatusInternalServerError, KeyNotConfigured)
	}

	row, err := e.store.FindByIdentifiers(ctx, ident, identifier)
	if errors.Is(err, pg.ErrNotFound) {
		obs.ObserveLogin("failure")
		return nil, apperr.New(http.StatusUnauthorized, KeyInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: identity lookup: %w", err)
	}
	if !e.ComparePassword(secret, stringify(row[ident.SecretField])) {
		obs.ObserveLogin("failure")
		return nil, apperr.New(http.StatusUnauthorized, KeyInvalidCredentials)
	}

	user := userFromRow(ident, row)
	result, err := e.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	obs.ObserveLogin("success")
	return result, nil
}

// Logout deletes the session referenced by the bearer token, when
// there is one. It never fails from the caller's perspective; the
// acknowledgement key is returned regardless of token validity.
func (e *Engine) Logout(ctx context.Context, authorization string) string {
	header := strings.TrimSpace(authorization)
	if strings.HasPrefix(header, bearerPrefix) {
		token := strings.TrimSpace(header[len(bearerPrefix):])
		if claims, err := e.VerifyToken(token, false); err == nil && claims.SessionID != "" {
			if err := e.sessions.Delete(ctx, claims.SessionID); err != nil {
				e.log.Warn().Err(err).Msg("session delete failed during logout")
			}
		}
	}
	return KeyLoggedOut
}

// Refresh rotates the session: it verifies the refresh token,
// re-fetches the current identity row, and issues a fresh session and
// token pair. The old session is left to expire naturally.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperr.New(http.StatusBadRequest, KeyValidation)
	}
	if err := e.ensureReady(ctx); err != nil {
		return nil, apperr.New(http.StatusInternalServerError, KeyNotConfigured)
	}

	claims, err := e.VerifyToken(refreshToken, true)
	if err != nil {
		return nil, apperr.New(http.StatusUnauthorized, KeyInvalidToken)
	}

	ident := e.Identity()
	row, err := e.store.FindByPK(ctx, ident, claims.Subject)
	if errors.Is(err, pg.ErrNotFound) {
		// Absent identities read as 401, never 404: no enumeration.
		return nil, apperr.New(http.StatusUnauthorized, KeyInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("auth: identity lookup: %w", err)
	}
	return e.openSession(ctx, userFromRow(ident, row))
}

// Me echoes the authenticated identity.
func (e *Engine) Me(user *User) (*User, error) {
	if user == nil {
		return nil, apperr.New(http.StatusUnauthorized, KeyUnauthenticated)
	}
	return user, nil
}

func (e *Engine) openSession(ctx context.Context, user *User) (*LoginResult, error) {
	sessionID := ids.New()
	if err := e.sessions.Create(ctx, sessionID, sessionData(user)); err != nil {
		return nil, fmt.Errorf("auth: create session: %w", err)
	}
	access, err := e.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, apperr.New(http.StatusInternalServerError, KeyNotConfigured)
	}
	refresh, err := e.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperr.New(http.StatusInternalServerError, KeyNotConfigured)
	}
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
