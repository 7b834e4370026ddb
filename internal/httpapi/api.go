package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/rls"
)

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the HTTP-layer knobs.
type Config struct {
	Version string

	// CookieName and HeaderName are the token carriers besides the
	// Authorization header.
	CookieName string
	HeaderName string
	// Transports is the credential lookup order; recognized values
	// are "bearer", "cookie", "header", and "basic".
	Transports []string

	// Per-IP rate limit applied to the credential endpoints.
	LoginBurst     int
	LoginPerMinute int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	engine     *auth.Engine
	injector   *rls.Injector
	auditor    *audit.Logger
	readyProbe ReadyProbe
	cfg        Config
	log        zerolog.Logger
}

func New(engine *auth.Engine, injector *rls.Injector, auditor *audit.Logger, rp ReadyProbe, cfg Config) *API {
	if cfg.CookieName == "" {
		cfg.CookieName = "gatehouse_token"
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Auth-Token"
	}
	if len(cfg.Transports) == 0 {
		cfg.Transports = []string{"bearer", "cookie", "header"}
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = 10
	}
	if cfg.LoginPerMinute <= 0 {
		cfg.LoginPerMinute = 30
	}
	a := &API{
		mux:        http.NewServeMux(),
		engine:     engine,
		injector:   injector,
		auditor:    auditor,
		readyProbe: rp,
		cfg:        cfg,
		log:        obs.Component("httpapi"),
	}

	limited := RateLimit(cfg.LoginBurst, cfg.LoginPerMinute)
	a.mux.Handle("/v1/auth/login", limited(http.HandlerFunc(a.handleLogin)))
	a.mux.Handle("/v1/auth/refresh", limited(http.HandlerFunc(a.handleRefresh)))
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)
	a.mux.HandleFunc("/v1/auth/status", a.handleStatus)

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withIdentity(h)
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = a.Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gatehouse-api",
		"version": a.cfg.Version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// handleStatus reports the resolved auth posture for operators:
// whether auth is enabled, which identity entity backs it, the
// session-store disposition, and the row-isolation strategy.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	body := map[string]any{
		"enabled":  a.engine.IsEnabled(r.Context()),
		"sessions": a.engine.GetSessionStore().Status(),
	}
	if ident := a.engine.Identity(); ident.Enabled {
		body["entity"] = ident.Entity
		body["identifierFields"] = ident.IdentifierFields
	}
	if a.injector != nil {
		body["rowIsolation"] = a.injector.Strategy().String()
	}
	writeData(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps successful payloads in the {data} envelope.
func writeData(w http.ResponseWriter, code int, v any) {
	writeJSON(w, code, map[string]any{"data": v})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method.not_allowed"})
}
