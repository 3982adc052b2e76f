package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/cmd"
	"github.com/rubiojr/prospect/pkg/config"
	plog "github.com/rubiojr/prospect/pkg/log"
)

func main() {
	app := &cli.Command{
		Name:  "prospect",
		Usage: "Search, preview and export business leads",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			plog.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.LoginCommand(),
			cmd.LogoutCommand(),
			cmd.UsageCommand(),
			cmd.CountriesCommand(),
			cmd.CitiesCommand(),
			cmd.PreviewCommand(),
			cmd.SearchCommand(),
			cmd.ExportCommand(),
			cmd.HistoryCommand(),
			cmd.WebCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
