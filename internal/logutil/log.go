package logutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte
)

const (
	// LevelEnvVar holds the log level used when no flag overrides it
	LevelEnvVar = "LOG_LEVEL"

	defaultLevel = zerolog.WarnLevel
)

var (
	loggerKey = key(1)
)

// Setup configures the global logger. An empty level falls back to
// the value of LOG_LEVEL and then to warn.
func Setup(out io.Writer, level string, pretty bool) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	lvl := ParseLevel(out, level)
	if pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(lvl)
	return log.Logger
}

// ParseLevel reads the given level (or LOG_LEVEL when empty),
// unknown values print a notice to out and yield warn.
func ParseLevel(out io.Writer, level string) zerolog.Level {
	if level == "" {
		level = os.Getenv(LevelEnvVar)
	}
	if level == "" {
		return defaultLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		if out != nil {
			fmt.Fprintf(out, "Could not parse log level %q, defaulting to %v\n", level, defaultLevel)
		}
		return defaultLevel
	}
	return lvl
}

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}
