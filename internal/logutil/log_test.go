package logutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Setenv(LevelEnvVar, "")
	var notice bytes.Buffer
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(&notice, ""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(&notice, "DEBUG"))
	assert.Empty(t, notice.String())

	assert.Equal(t, zerolog.WarnLevel, ParseLevel(&notice, "chatty"))
	assert.Contains(t, notice.String(), "chatty")

	t.Setenv(LevelEnvVar, "info")
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(nil, ""))
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("request.id", "abc").Logger()
	ctx := WithLogger(context.Background(), logger)
	l := GetOrDefault(ctx)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"request.id":"abc"`)
}

func TestSetupReportsBadLevelInPlainText(t *testing.T) {
	previous := log.Logger
	defer func() { log.Logger = previous }()

	var out bytes.Buffer
	logger := Setup(&out, "chatty", true)
	assert.Contains(t, out.String(), `Could not parse log level "chatty"`)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	out.Reset()
	logger.Warn().Msg("pretty output")
	assert.Contains(t, out.String(), "pretty output")
	assert.NotContains(t, out.String(), `"message"`)
}
