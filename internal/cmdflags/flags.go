package cmdflags

import (
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/logutil"
	"github.com/urfave/cli/v2"
)

func ConfigDir(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config-dir",
		Aliases:     []string{"c"},
		Usage:       "Directory holding default.lua, <RUN_MODE>.lua and local.lua",
		EnvVars:     []string{"CONFIG_DIR"},
		Destination: out,
		Value:       *out,
	}
}

func LogLevel(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "log-level",
		Usage:       "One of trace, debug, info, warn, error (falls back to " + logutil.LevelEnvVar + ")",
		Destination: out,
		Value:       *out,
	}
}

func PrettyLog(out *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "pretty-log",
		Usage:       "Human friendly console output instead of JSON lines",
		Destination: out,
		Value:       *out,
	}
}
