package serve

import (
	"context"
	"fmt"
	"net/http"

	"github.com/EchelonFour/traefik-basicauth-rememberme/credential"
	"github.com/EchelonFour/traefik-basicauth-rememberme/forwardauth"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/cmdflags"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/config"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/httpserver"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/logutil"
	"github.com/EchelonFour/traefik-basicauth-rememberme/session"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	configDir := "config"
	var listen string
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the forward-auth server",
		Flags: []cli.Flag{
			cmdflags.ConfigDir(&configDir),
			&cli.StringFlag{
				Name:        "listen",
				Aliases:     []string{"bind"},
				Usage:       "Address to listen on, overrides the configured value",
				Destination: &listen,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(config.Options{Dir: configDir})
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			handler, closer, err := Build(ctx.Context, cfg)
			if err != nil {
				return err
			}
			defer closer()
			return httpserver.Serve(ctx.Context, cfg.Listen, handler)
		},
	}
}

// Build loads the credentials and assembles the request handler for cfg.
// The returned func releases background resources.
func Build(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	log := logutil.GetOrDefault(ctx)
	log.Info().Object("config", cfg).Msg("Configuration loaded")
	if cfg.Secret.Generated {
		log.Warn().Msg("No secret configured, using a random one: cookies will not survive a restart")
	}

	src := credential.Source{
		DBPath:   cfg.CredentialsDB,
		Contents: cfg.HtpasswdContents,
		FilePath: cfg.HtpasswdPath,
	}
	snap, err := credential.Load(ctx, src)
	if err != nil {
		return nil, nil, config.ConfigurationError{Field: "credentials", Reason: fmt.Sprintf("unable to load %v", src), Cause: err}
	}
	if snap.Len() == 0 {
		log.Warn().Str("source", src.String()).Msg("Credential store is empty, every request will be challenged")
	}
	log.Info().
		Str("source", src.String()).
		Int("users", snap.Len()).
		Str("fingerprint", fmt.Sprintf("%016x", snap.Fingerprint())).
		Msg("Credentials loaded")

	closer := func() {}
	var store credential.Store = snap
	if cfg.VerifyCacheTTL > 0 {
		cache, err := credential.NewVerifyCache(snap, cfg.VerifyCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		closer = func() { cache.Close() }
		store = cache
	}

	codec, err := session.NewCodec(cfg.Secret.Bytes(), cfg.CookieName)
	if err != nil {
		closer()
		return nil, nil, config.ConfigurationError{Field: "secret", Reason: "unable to derive the cookie key", Cause: err}
	}
	metrics := forwardauth.NewMetrics()
	engine := forwardauth.NewEngine(forwardauth.EngineOptions{
		Store:         store,
		Codec:         codec,
		Policy:        session.NewPolicy(cfg.CookieName, cfg.CookieDomain, cfg.CookieLifetime),
		NoSaveEnabled: cfg.NoSaveEnabled,
		LoginRedirect: cfg.LoginRedirect,
		Metrics:       metrics,
	})
	handler := forwardauth.AsHandler(ctx, engine, forwardauth.Shaper{
		Realm:      cfg.Realm,
		UserHeader: cfg.UserHeader,
	}, forwardauth.HandlerOptions{
		Secure:          cfg.SecureCookie,
		Users:           snap.Len(),
		GeneratedSecret: cfg.Secret.Generated,
		Metrics:         metrics,
	})
	return handler, closer, nil
}
