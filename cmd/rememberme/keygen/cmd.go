package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	size := 64
	return &cli.Command{
		Name:  "keygen",
		Usage: "Print a random base64 secret suitable for APP_SECRET",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "bytes",
				Usage:       "Size of the secret before encoding (at least 32)",
				Value:       size,
				Destination: &size,
			},
		},
		Action: func(ctx *cli.Context) error {
			if size < 32 {
				return fmt.Errorf("secret must have at least 32 bytes, got %v", size)
			}
			buf := make([]byte, size)
			if _, err := rand.Read(buf); err != nil {
				return fmt.Errorf("unable to read random bytes, cause %w", err)
			}
			_, err := fmt.Fprintln(ctx.App.Writer, base64.StdEncoding.EncodeToString(buf))
			return err
		},
	}
}
