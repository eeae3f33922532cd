package keygen

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func run(args ...string) (string, error) {
	var out bytes.Buffer
	app := &cli.App{Writer: &out, Commands: []*cli.Command{Cmd()}}
	err := app.Run(append([]string{"rememberme", "keygen"}, args...))
	return out.String(), err
}

func TestKeygen(t *testing.T) {
	out, err := run()
	require.NoError(t, err)
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, key, 64)

	other, err := run()
	require.NoError(t, err)
	assert.NotEqual(t, out, other)

	out, err = run("--bytes", "32")
	require.NoError(t, err)
	key, err = base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = run("--bytes", "16")
	assert.Error(t, err)
}
