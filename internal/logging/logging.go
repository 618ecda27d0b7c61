// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup sets the global level and output. console selects a human-readable
// writer, otherwise JSON lines go to stdout. Unknown levels fall back to info.
func Setup(level string, console bool) {
	SetupWriter(os.Stdout, level, console)
}

func SetupWriter(w io.Writer, level string, console bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: w != os.Stdout}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "calcagent").Logger()
}
