package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitializeLogger points the global zerolog logger at a console writer on
// stdout with the given level. An unknown level falls back to info.
func InitializeLogger(lvl string) {
	InitializeLoggerWithWriter(lvl, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}

func InitializeLoggerWithWriter(lvl string, out io.Writer) {
	level, err := zerolog.ParseLevel(lvl)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if err != nil {
		log.Warn().Str("level", lvl).Msg("Unknown log level, using info")
	}
}
