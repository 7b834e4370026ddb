// Package config centralizes the environment-driven settings of the
// service. Explicit options passed to component constructors always win
// over anything read here.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding variable is unset or invalid.
const (
	DefaultAddr       = ":8080"
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 14 * 24 * time.Hour
	DefaultSessionTTL = 24 * time.Hour
	DefaultCookieName = "gatehouse_token"
	DefaultHeaderName = "X-Auth-Token"
)

// Config holds every runtime knob of the service.
type Config struct {
	Addr  string
	PGDSN string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	BcryptCost int

	IdentityEntity   string
	IdentifierFields []string
	SecretField      string
	RoleField        string

	CookieName string
	HeaderName string
	Transports []string

	LoginBurst     int
	LoginPerMinute int
}

// Load reads GATEHOUSE_* environment variables and fills in defaults.
func Load() Config {
	return Config{
		Addr:  getenv("GATEHOUSE_ADDR", DefaultAddr),
		PGDSN: os.Getenv("GATEHOUSE_PG_DSN"),

		AccessSecret:  os.Getenv("GATEHOUSE_AUTH_SECRET"),
		RefreshSecret: os.Getenv("GATEHOUSE_REFRESH_SECRET"),
		AccessTTL:     getenvDuration("GATEHOUSE_ACCESS_TTL", DefaultAccessTTL),
		RefreshTTL:    getenvDuration("GATEHOUSE_REFRESH_TTL", DefaultRefreshTTL),

		SessionBackend: getenv("GATEHOUSE_SESSION_BACKEND", "memory"),
		SessionTTL:     getenvDuration("GATEHOUSE_SESSION_TTL", DefaultSessionTTL),
		RedisAddr:      getenv("GATEHOUSE_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("GATEHOUSE_REDIS_PASSWORD"),
		RedisDB:        getenvInt("GATEHOUSE_REDIS_DB", 0),

		BcryptCost: getenvInt("GATEHOUSE_BCRYPT_COST", 0),

		IdentityEntity:   os.Getenv("GATEHOUSE_IDENTITY_ENTITY"),
		IdentifierFields: getenvList("GATEHOUSE_IDENTIFIER_FIELDS"),
		SecretField:      os.Getenv("GATEHOUSE_SECRET_FIELD"),
		RoleField:        os.Getenv("GATEHOUSE_ROLE_FIELD"),

		CookieName: getenv("GATEHOUSE_COOKIE_NAME", DefaultCookieName),
		HeaderName: getenv("GATEHOUSE_HEADER_NAME", DefaultHeaderName),
		Transports: getenvListDefault("GATEHOUSE_TRANSPORTS", []string{"bearer", "cookie", "header"}),

		LoginBurst:     getenvInt("GATEHOUSE_LOGIN_BURST", 10),
		LoginPerMinute: getenvInt("GATEHOUSE_LOGIN_PER_MINUTE", 30),
	}
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	// Accept both Go durations ("15m") and bare seconds ("900").
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getenvList(key string) []string {
	return getenvListDefault(key, nil)
}

func getenvListDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
