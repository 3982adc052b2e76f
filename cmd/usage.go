package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/render"
)

// UsageCommand shows the account's credit usage
func UsageCommand() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Show search credit usage",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			cl, err := newClient(cfg)
			if err != nil {
				return err
			}
			usage, err := cl.Usage(ctx)
			if err != nil {
				return fmt.Errorf("reading usage: %w", err)
			}
			decision := engine.CheckBeforeSearch(&usage, cfg.Engine.LowCreditThreshold)
			fmt.Println(render.New(terminalWidth()).Usage(&usage, decision))
			if !usage.Unlimited() {
				fmt.Printf("Used %s searches this period\n", render.Number(usage.UsageCount))
			}
			return nil
		},
	}
}
