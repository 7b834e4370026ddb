package auth

import "errors"

var (
	// ErrInvalidToken covers every token verification failure: bad
	// signature, expiry, malformed input, wrong algorithm, wrong type
	// discriminator. Callers never learn which.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrNoSecret indicates signing was attempted without a configured
	// secret and auto-generation disabled.
	ErrNoSecret = errors.New("auth: signing secret is not configured")

	// ErrNotConfigured indicates the engine resolved no identity entity.
	ErrNotConfigured = errors.New("auth: not configured")
)

// Message keys carried by flow-level errors. Localizable; never
// internal detail.
const (
	KeyValidation         = "auth.validation"
	KeyInvalidCredentials = "auth.invalid_credentials"
	KeyInvalidToken       = "auth.invalid_token"
	KeyNotConfigured      = "auth.not_configured"
	KeyUnauthenticated    = "auth.unauthenticated"
	KeyLoggedOut          = "auth.logged_out"
)
