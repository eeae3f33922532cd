package hash

import (
	"bytes"
	"strings"
	"testing"

	"github.com/EchelonFour/traefik-basicauth-rememberme/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	app := &cli.App{Reader: strings.NewReader(stdin), Writer: &out, Commands: []*cli.Command{Cmd()}}
	err := app.Run(append([]string{"rememberme", "hash"}, args...))
	return out.String(), err
}

func TestHashPrintsUsableLine(t *testing.T) {
	for _, algo := range []string{credential.AlgoBcrypt, credential.AlgoArgon2id} {
		out, err := run("s3cret: with colon\n", "--user", "alice", "--algo", algo)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "alice:"), out)

		snap, err := credential.ParseHtpasswd(strings.NewReader(out))
		require.NoError(t, err)
		assert.True(t, snap.Check("alice", "s3cret: with colon"))
		assert.False(t, snap.Check("alice", "s3cret"))
	}
}

func TestHashRejectsBadInput(t *testing.T) {
	_, err := run("", "--user", "alice")
	assert.Error(t, err, "empty stdin")
	_, err = run("pw\n", "--user", "al:ice")
	assert.Error(t, err, "colon in user id")
	_, err = run("pw\n", "--user", "alice", "--algo", "md5")
	assert.Error(t, err, "unknown algorithm")
}
