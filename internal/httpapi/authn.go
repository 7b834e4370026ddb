package httpapi

import (
	"net/http"
	"strings"

	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/rls"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
	basic      = "Basic "
)

// withIdentity resolves the caller's identity from the configured
// transports, in order, and attaches the user and the security actor
// to the request context. Anonymous requests pass through; individual
// handlers decide whether authentication is required.
func (a *API) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, transport := range a.cfg.Transports {
			var (
				user *auth.User
				ok   bool
			)
			switch transport {
			case "bearer":
				token, found := bearerToken(r.Header.Get(authHeader))
				if !found {
					continue
				}
				user, ok = a.engine.HandleBearerAuth(ctx, token)
			case "cookie":
				cookie, err := r.Cookie(a.cfg.CookieName)
				if err != nil {
					continue
				}
				user, ok = a.engine.HandleCookieAuth(ctx, cookie.Value)
			case "header":
				user, ok = a.engine.HandleHeaderAuth(ctx, r.Header.Get(a.cfg.HeaderName))
			case "basic":
				encoded, found := basicCredentials(r.Header.Get(authHeader))
				if !found {
					continue
				}
				user, ok = a.engine.HandleBasicAuth(ctx, encoded)
			default:
				continue
			}
			if ok {
				ctx = auth.ContextWithUser(ctx, user)
				ctx = rls.WithActor(ctx, rls.Actor{UserID: user.ID, Role: user.Role})
				break
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, bearer) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearer):])
	return token, token != ""
}

func basicCredentials(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, basic) {
		return "", false
	}
	encoded := strings.TrimSpace(header[len(basic):])
	return encoded, encoded != ""
}
