package serve

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/EchelonFour/traefik-basicauth-rememberme/forwardauth"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/config"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/testutil"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	cfg, err := config.Load(config.Options{
		DotEnv: filepath.Join(t.TempDir(), ".env"),
		LookupEnv: func(name string) (string, bool) {
			v, ok := env[name]
			return v, ok
		},
		Setenv: func(name, value string) error { env[name] = value; return nil },
	})
	require.NoError(t, err)
	return cfg
}

func TestBuildServesConfiguredGateway(t *testing.T) {
	file, cleanup := testutil.AcquireHtpasswdFile(t, map[string]string{"alice": "secret"})
	defer cleanup()
	cfg := loadConfig(t, map[string]string{
		"APP_HTPASSWD_PATH":    file,
		"APP_SECRET":           testutil.SecretKey,
		"APP_USER_HEADER":      "X-Forwarded-User",
		"APP_VERIFY_CACHE_TTL": "1m",
		"APP_REALM":            "Staging",
	})
	handler, closer, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer closer()

	apitest.New().
		Handler(handler).
		Get("/").
		Expect(t).
		Status(http.StatusUnauthorized).
		Header("WWW-Authenticate", `Basic realm="Staging"`).
		End()

	apitest.New().
		Handler(handler).
		Get("/").
		BasicAuth("alice", "secret").
		Expect(t).
		Status(http.StatusOK).
		Header("X-Forwarded-User", "alice").
		CookiePresent("_auth_remember_me").
		End()

	apitest.New().
		Handler(handler).
		Get(forwardauth.HealthPath).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.users", float64(1))).
		Assert(jsonpath.Equal("$.generated_secret", false)).
		End()
}

func TestBuildFailsOnMissingCredentials(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"APP_HTPASSWD_PATH": filepath.Join(t.TempDir(), "missing"),
	})
	_, _, err := Build(context.Background(), cfg)
	require.Error(t, err)
	var cerr config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
}
