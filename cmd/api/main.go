package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/config"
	"gatehouse.org/internal/httpapi"
	"gatehouse.org/internal/obs"
	"gatehouse.org/internal/rls"
	"gatehouse.org/internal/schema"
	"gatehouse.org/internal/session"
	"gatehouse.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("GATEHOUSE_COMMIT"))
	log := obs.Component("main")
	cfg := config.Load()

	var (
		store    *pg.Store
		provider schema.Provider
		injector *rls.Injector
	)
	if cfg.PGDSN != "" {
		var err error
		store, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		provider = schema.NewPGProvider(store.DB(), "public")
		injector = rls.New(store)
	} else {
		// Without a database the service still serves health and
		// status endpoints; auth resolves to disabled.
		provider = &schema.StaticProvider{}
		log.Warn().Msg("no database configured, auth will be disabled")
	}

	sessions := session.NewManager(session.ManagerConfig{
		Backend:       cfg.SessionBackend,
		TTL:           cfg.SessionTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	defer func() { _ = sessions.Destroy() }()

	var identityStore auth.IdentityStore
	if store != nil {
		identityStore = store
	}
	engine := auth.New(provider, identityStore, sessions, auth.Config{
		AccessSecret:     cfg.AccessSecret,
		RefreshSecret:    cfg.RefreshSecret,
		AccessTTL:        cfg.AccessTTL,
		RefreshTTL:       cfg.RefreshTTL,
		BcryptCost:       cfg.BcryptCost,
		IdentityEntity:   cfg.IdentityEntity,
		IdentifierFields: cfg.IdentifierFields,
		SecretField:      cfg.SecretField,
		RoleField:        cfg.RoleField,
	})

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	if err := engine.Init(initCtx); err != nil {
		log.Warn().Err(err).Msg("auth initialization deferred, will retry on first request")
	}
	cancelInit()

	var rp httpapi.ReadyProbe
	if store != nil {
		rp = httpapi.ReadyProbe{DB: store.DB()}
	}
	api := httpapi.New(engine, injector, audit.New(), rp, httpapi.Config{
		Version:        version,
		CookieName:     cfg.CookieName,
		HeaderName:     cfg.HeaderName,
		Transports:     cfg.Transports,
		LoginBurst:     cfg.LoginBurst,
		LoginPerMinute: cfg.LoginPerMinute,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting gatehouse-api")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if store != nil {
		_ = store.Close()
	}
	log.Info().Msg("stopped")
}
