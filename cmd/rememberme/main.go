package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/EchelonFour/traefik-basicauth-rememberme/cmd/rememberme/hash"
	"github.com/EchelonFour/traefik-basicauth-rememberme/cmd/rememberme/keygen"
	"github.com/EchelonFour/traefik-basicauth-rememberme/cmd/rememberme/serve"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/cmdflags"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/logutil"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	var level string
	var pretty bool
	app := &cli.App{
		Name:  "rememberme",
		Usage: "Forward-auth gateway: Basic-Auth with an encrypted remember-me cookie",
		Flags: []cli.Flag{
			cmdflags.LogLevel(&level),
			cmdflags.PrettyLog(&pretty),
		},
		Before: func(ctx *cli.Context) error {
			logger := logutil.Setup(os.Stderr, level, pretty)
			ctx.Context = logutil.WithLogger(ctx.Context, logger)
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			hash.Cmd(),
			keygen.Cmd(),
		},
	}
	args := os.Args
	if len(args) == 1 {
		// a bare invocation is what container images run
		args = append(args, "serve")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := app.RunContext(ctx, args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
