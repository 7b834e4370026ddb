package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"gatehouse.org/internal/apperr"
)

func requireStatus(t *testing.T, err error, status int, key string) {
	t.Helper()
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "expected apperr.Error, got %v", err)
	require.Equal(t, status, ae.Status)
	require.Equal(t, key, ae.Key)
}

func TestLoginSuccess(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, "u1", res.User.ID)
	require.Equal(t, "admin", res.User.Role)
	require.NotContains(t, res.User.Attrs, "password_hash", "secret field must be stripped")
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	// The access token is backed by a live session.
	claims, err := e.VerifyToken(res.AccessToken, false)
	require.NoError(t, err)
	require.NotEmpty(t, claims.SessionID)
	_, ok, err := e.GetSessionStore().Get(ctx, claims.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoginValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Login(ctx, "", "x")
	requireStatus(t, err, 400, KeyValidation)

	_, err = e.Login(ctx, "a@b.com", "")
	requireStatus(t, err, 400, KeyValidation)
}

func TestLoginBadCredentialsIndistinguishable(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, errUnknown := e.Login(ctx, "nobody@example.com", "password123")
	requireStatus(t, errUnknown, 401, KeyInvalidCredentials)

	_, errWrongPw := e.Login(ctx, "alice@example.com", "wrong")
	requireStatus(t, errWrongPw, 401, KeyInvalidCredentials)

	require.Equal(t, errUnknown.Error(), errWrongPw.Error(),
		"unknown identifier and wrong secret must be indistinguishable")
}

func TestLoginBackendFailureSurfaces(t *testing.T) {
	e, store, _ := newTestEngine(t)
	store.err = errors.New("connection refused")

	_, err := e.Login(context.Background(), "alice@example.com", "password123")
	require.Error(t, err)
	var ae *apperr.Error
	require.False(t, errors.As(err, &ae), "backend failure is not a flow error")
}

func TestLogoutDeletesSessionAndNeverFails(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	claims, err := e.VerifyToken(res.AccessToken, false)
	require.NoError(t, err)

	require.Equal(t, KeyLoggedOut, e.Logout(ctx, "Bearer "+res.AccessToken))
	_, ok, err := e.GetSessionStore().Get(ctx, claims.SessionID)
	require.NoError(t, err)
	require.False(t, ok, "logout must delete the session")

	// Invalid, empty, and absent tokens still acknowledge.
	require.Equal(t, KeyLoggedOut, e.Logout(ctx, "Bearer garbage"))
	require.Equal(t, KeyLoggedOut, e.Logout(ctx, ""))
	require.Equal(t, KeyLoggedOut, e.Logout(ctx, "Basic abc"))
}

func TestRefreshRotatesSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	firstClaims, _ := e.VerifyToken(first.AccessToken, false)

	second, err := e.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	secondClaims, err := e.VerifyToken(second.AccessToken, false)
	require.NoError(t, err)

	require.NotEqual(t, firstClaims.SessionID, secondClaims.SessionID,
		"refresh issues a new session instead of extending the old one")

	// The old session is untouched, left to expire naturally.
	_, ok, _ := e.GetSessionStore().Get(ctx, firstClaims.SessionID)
	require.True(t, ok)
}

func TestRefreshRejectsGarbageAndAccessTokens(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Refresh(ctx, "")
	requireStatus(t, err, 400, KeyValidation)

	_, err = e.Refresh(ctx, "garbage")
	requireStatus(t, err, 401, KeyInvalidToken)

	res, err := e.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	_, err = e.Refresh(ctx, res.AccessToken)
	requireStatus(t, err, 401, KeyInvalidToken)
}

func TestRefreshForDeletedIdentity(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	store.rows = nil
	_, err = e.Refresh(ctx, res.RefreshToken)
	requireStatus(t, err, 401, KeyInvalidToken)
}

func TestMe(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.Me(nil)
	requireStatus(t, err, 401, KeyUnauthenticated)

	u := &User{ID: "u1", Role: "user"}
	got, err := e.Me(u)
	require.NoError(t, err)
	require.Same(t, u, got)
}
