package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
)

// ExportCommand searches and submits an export job for the same filters
func ExportCommand() *cli.Command {
	flags := append(filterFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format: csv or excel",
			Value:   string(leads.FormatCSV),
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Do not ask for confirmation when credits are low",
		},
		&cli.BoolFlag{
			Name:  "last",
			Usage: "Export the filters of the most recent search",
		},
	)
	return &cli.Command{
		Name:  "export",
		Usage: "Start an export job for the leads matching the filters",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			format, err := leads.ParseExportFormat(c.String("format"))
			if err != nil {
				return err
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			sess, err := openSession(ctx, cfg, sessionOptions{confirmer: confirmerFor(c)})
			if err != nil {
				return err
			}
			defer sess.Close()

			sel, err := selectionFor(ctx, c, sess)
			if err != nil {
				return err
			}
			if err := applyFilters(ctx, sess.dash, sel); err != nil {
				return err
			}
			if err := searchPage(ctx, sess.dash, 1); err != nil {
				return err
			}

			jobID, err := sess.dash.Exports.Export(ctx, format)
			var se *engine.SearchError
			switch {
			case errors.Is(err, engine.ErrNothingToExport):
				return errors.New("no leads match these filters; nothing to export")
			case errors.As(err, &se):
				return cli.Exit("", 1)
			case err != nil:
				return fmt.Errorf("exporting: %w", err)
			}
			fmt.Printf("Export job %s started (%s)\n", jobID, format)
			return nil
		},
	}
}
