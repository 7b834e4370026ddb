package httpapi

import (
	"encoding/base64"
	"net/http"
	"testing"
)

func TestBasicTransportWhenConfigured(t *testing.T) {
	api := newTestAPI(t)
	api.cfg.Transports = []string{"basic", "bearer"}
	h := api.Handler()

	creds := base64.StdEncoding.EncodeToString([]byte("alice@example.com:password123"))
	rr := doJSON(t, h, http.MethodGet, "/v1/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Basic "+creds)
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 via basic auth, got %d (%s)", rr.Code, rr.Body.String())
	}

	bad := base64.StdEncoding.EncodeToString([]byte("alice@example.com:wrong"))
	rr = doJSON(t, h, http.MethodGet, "/v1/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Basic "+bad)
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad basic credentials, got %d", rr.Code)
	}
}

func TestBasicTransportIgnoredByDefault(t *testing.T) {
	h := newTestAPI(t).Handler()

	creds := base64.StdEncoding.EncodeToString([]byte("alice@example.com:password123"))
	rr := doJSON(t, h, http.MethodGet, "/v1/auth/me", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Basic "+creds)
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("basic credentials must not authenticate unless configured, got %d", rr.Code)
	}
}
