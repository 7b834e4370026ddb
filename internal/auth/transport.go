package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"gatehouse.org/internal/schema"
	"gatehouse.org/internal/session"
	"gatehouse.org/internal/store/pg"
)

// Transport handlers resolve raw credential values into a sanitized
// user. Failures of any kind, including backend errors, yield
// (nil, false); nothing escapes the handler boundary.

// HandleBearerAuth verifies an access token. When the token carries a
// session id the session must exist (and is refreshed); a valid
// signature alone is not sufficient. Without a session id the embedded
// snapshot is trusted; a bare subject yields a minimal identity with
// the default role.
func (e *Engine) HandleBearerAuth(ctx context.Context, token string) (*User, bool) {
	if e.ensureReady(ctx) != nil {
		return nil, false
	}
	claims, err := e.VerifyToken(token, false)
	if err != nil {
		return nil, false
	}
	if claims.SessionID != "" {
		data, ok, err := e.sessions.Get(ctx, claims.SessionID)
		if err != nil || !ok {
			return nil, false
		}
		// Sliding expiry on every successful lookup.
		_ = e.sessions.Refresh(ctx, claims.SessionID)
		return UserFromSnapshot(data), true
	}
	if len(claims.User) > 0 {
		return UserFromSnapshot(claims.User), true
	}
	return &User{ID: claims.Subject, Role: DefaultRole, Attrs: map[string]any{}}, true
}

// HandleCookieAuth authenticates the token read from the session
// cookie.
func (e *Engine) HandleCookieAuth(ctx context.Context, value string) (*User, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, false
	}
	return e.HandleBearerAuth(ctx, value)
}

// HandleHeaderAuth authenticates the token read from the custom auth
// header.
func (e *Engine) HandleHeaderAuth(ctx context.Context, value string) (*User, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, false
	}
	return e.HandleBearerAuth(ctx, value)
}

// HandleBasicAuth decodes base64 "identifier:secret" credentials and
// verifies them against the identity entity, trying each configured
// identifier field in turn; the first row found wins.
func (e *Engine) HandleBasicAuth(ctx context.Context, encoded string) (*User, bool) {
	if e.ensureReady(ctx) != nil {
		return nil, false
	}
	ident := e.Identity()
	if ident.SecretField == "" {
		return nil, false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, false
	}
	identifier, secret, ok := splitBasic(string(decoded))
	if !ok {
		return nil, false
	}

	row, ok := e.lookupByIdentifierFields(ctx, ident, identifier)
	if !ok {
		return nil, false
	}
	if !e.ComparePassword(secret, stringify(row[ident.SecretField])) {
		return nil, false
	}
	return userFromRow(ident, row), true
}

func (e *Engine) lookupByIdentifierFields(ctx context.Context, ident schema.Identity, identifier string) (map[string]any, bool) {
	for _, field := range ident.IdentifierFields {
		row, err := e.store.FindByField(ctx, ident, field, identifier)
		if errors.Is(err, pg.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false
		}
		return row, true
	}
	return nil, false
}

// splitBasic splits on the first colon; a missing colon or an empty
// half rejects the credentials.
func splitBasic(raw string) (identifier, secret string, ok bool) {
	idx := strings.IndexByte(raw, ':')
	if idx <= 0 || idx == len(raw)-1 {
		return "", "", false
	}
	return raw[:idx], raw[idx+1:], true
}

// sessionData builds the session record for a user.
func sessionData(user *User) session.Data {
	return session.Data(user.Snapshot())
}
