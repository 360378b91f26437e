package logger

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/zeventbooks/eventgateway/config"
)

// New returns a configured zerolog.Logger. Level is driven by
// cfg.LogLevel (DEBUG_LEVEL), falling back to info for unknown values.
func New(cfg *config.Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !cfg.IsDev()}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(out).With().Timestamp().Str("service", "eventgateway").Logger()
}
