package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a flow-level failure carrying an HTTP status code and a
// machine-readable message key. The key is what reaches clients; it is
// localizable and never contains internal detail.
type Error struct {
	Status int
	Key    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Key, e.Status)
}

// New constructs an Error with the given status code and message key.
func New(status int, key string) *Error {
	return &Error{Status: status, Key: key}
}

// StatusOf extracts the HTTP status from err, defaulting to 500 for
// anything that is not an *Error.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// KeyOf extracts the message key from err, defaulting to a generic
// internal key so raw error text never leaks to clients.
func KeyOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Key
	}
	return "internal.error"
}
