package obs

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	logger     zerolog.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() zerolog.Logger {
	loggerOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	})
	return logger
}

// Component returns a child logger tagged with the originating component.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}
