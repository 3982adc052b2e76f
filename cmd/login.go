package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/client"
	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/render"
)

// LoginCommand stores an API token in the configured credential store
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Store an API token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "token",
				Usage: "API token (read from stdin when omitted)",
			},
			&cli.BoolFlag{
				Name:  "no-verify",
				Usage: "Store the token without checking it against the API",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store, err := credentialStore(cfg)
			if err != nil {
				return err
			}

			token := strings.TrimSpace(c.String("token"))
			if token == "" {
				if isTerminal(os.Stdin) {
					fmt.Fprint(os.Stderr, "API token: ")
				}
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return errors.New("empty token")
			}

			if !c.Bool("no-verify") {
				cl, err := client.NewFromConfig(cfg, auth.Static(token))
				if err != nil {
					return fmt.Errorf("creating client: %w", err)
				}
				usage, err := cl.Usage(ctx)
				if err != nil {
					return fmt.Errorf("verifying token: %w", err)
				}
				fmt.Println(render.New(terminalWidth()).Usage(&usage, engine.Proceed))
			}

			if err := store.Save(token); err != nil {
				return fmt.Errorf("saving token: %w", err)
			}
			fmt.Printf("Token saved (%s)\n", cfg.Auth.Source)
			return nil
		},
	}
}

// LogoutCommand removes the stored API token
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Remove the stored API token",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store, err := credentialStore(cfg)
			if err != nil {
				return err
			}
			if err := store.Delete(); err != nil {
				return fmt.Errorf("removing token: %w", err)
			}
			fmt.Println("Token removed")
			return nil
		},
	}
}
