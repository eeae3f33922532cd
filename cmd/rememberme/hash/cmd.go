package hash

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/EchelonFour/traefik-basicauth-rememberme/credential"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var username string
	algo := credential.AlgoBcrypt
	return &cli.Command{
		Name:  "hash",
		Usage: "Print an htpasswd line for a user (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "User id for the htpasswd line",
				Destination: &username,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "algo",
				Usage:       fmt.Sprintf("Hash algorithm, %v or %v", credential.AlgoBcrypt, credential.AlgoArgon2id),
				Value:       algo,
				Destination: &algo,
			},
		},
		Action: func(ctx *cli.Context) error {
			if strings.Contains(username, ":") {
				return errors.New("username cannot contain ':'")
			}
			sc := bufio.NewScanner(ctx.App.Reader)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			password := strings.TrimRight(sc.Text(), "\r")
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			hashed, err := credential.Generate(algo, password, rand.Reader)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(ctx.App.Writer, "%v:%v\n", username, hashed)
			return err
		},
	}
}
