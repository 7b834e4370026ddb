package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gatehouse.org/internal/apperr"
	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/auth"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, apperr.New(http.StatusBadRequest, auth.KeyValidation))
		return
	}

	result, err := a.engine.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.setSessionCookie(w, result.AccessToken)
	a.auditor.Log(r.Context(), "auth.login", map[string]any{"user_id": result.User.ID})
	writeData(w, http.StatusOK, result)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	key := a.engine.Logout(r.Context(), r.Header.Get(authHeader))
	a.clearSessionCookie(w)
	a.auditor.Log(r.Context(), "auth.logout", nil)
	writeData(w, http.StatusOK, map[string]any{"message": key})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, apperr.New(http.StatusBadRequest, auth.KeyValidation))
		return
	}

	result, err := a.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.setSessionCookie(w, result.AccessToken)
	a.auditor.Log(r.Context(), "auth.refresh", map[string]any{"user_id": result.User.ID})
	writeData(w, http.StatusOK, result)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	me, err := a.engine.Me(user)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, me)
}

// writeError maps an error to the {error, request_id} envelope. Raw
// error text never reaches clients; only message keys do.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		a.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	body := map[string]any{"error": apperr.KeyOf(err)}
	if id, ok := audit.RequestIDFromContext(r.Context()); ok {
		body["request_id"] = id
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Trailing garbage is a malformed request too.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing content")
	}
	return nil
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
