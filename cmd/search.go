package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/render"
)

// everything on the page fits in a viewport this tall
const fullViewport = 1 << 20

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	flags := append(filterFlags(),
		&cli.IntFlag{
			Name:  "page",
			Usage: "Result page",
			Value: 1,
		},
		&cli.StringFlag{
			Name:  "view",
			Usage: "Layout: cards or table (default from config)",
		},
		&cli.IntFlag{
			Name:  "rows",
			Usage: "Viewport height in lines; 0 shows the whole page",
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Scroll offset in lines",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Do not ask for confirmation when credits are low",
		},
		&cli.BoolFlag{
			Name:  "last",
			Usage: "Start from the filters of the most recent search",
		},
		&cli.StringFlag{
			Name:  "save-preset",
			Usage: "Save the filters to a YAML preset file",
		},
		&cli.BoolFlag{
			Name:  "no-pager",
			Usage: "Disable pager and output directly to terminal",
		},
	)
	return &cli.Command{
		Name:   "search",
		Usage:  "Search for leads",
		Flags:  flags,
		Action: runSearch,
	}
}

func runSearch(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	var mode engine.ViewMode
	if v := c.String("view"); v != "" {
		if mode, err = engine.ParseViewMode(v); err != nil {
			return err
		}
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
	if path := c.String("save-preset"); path != "" {
		if err := leads.SavePreset(path, sel); err != nil {
			return err
		}
	}
	if err := applyFilters(ctx, sess.dash, sel); err != nil {
		return err
	}

	if err := searchPage(ctx, sess.dash, c.Int("page")); err != nil {
		return err
	}

	view := sess.dash.View
	if mode != "" {
		view.SetMode(mode)
	}
	rows := c.Int("rows")
	if rows <= 0 {
		rows = fullViewport
	}
	view.SetViewportHeight(rows)
	view.ScrollTo(c.Int("offset"))

	_, visible := view.Visible()
	out := render.New(terminalWidth()).Dashboard(sess.dash.State(), visible, view.Columns())
	return display(out, c.Bool("no-pager"))
}

// selectionFor resolves --last, --preset and the filter flags.
func selectionFor(ctx context.Context, c *cli.Command, sess *session) (leads.FilterSelection, error) {
	var base leads.FilterSelection
	if c.Bool("last") {
		last, ok, err := sess.history.LastFilters(ctx)
		if err != nil {
			return leads.FilterSelection{}, fmt.Errorf("reading history: %w", err)
		}
		if !ok {
			return leads.FilterSelection{}, errors.New("no previous search in history")
		}
		base = last
	}
	return filtersFromFlags(c, base)
}

// searchPage runs the search and turns engine outcomes into CLI errors.
// Failures were already shown as notifications.
func searchPage(ctx context.Context, dash *engine.Dashboard, page int) error {
	var err error
	if page <= 1 {
		_, err = dash.Search.Submit(ctx)
	} else {
		_, err = dash.Search.GoToPage(ctx, page)
	}

	var se *engine.SearchError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrSearchDeclined):
		return cli.Exit("search cancelled: credits are low (use --yes to skip the confirmation)", 1)
	case errors.As(err, &se):
		return cli.Exit("", 1)
	default:
		return fmt.Errorf("searching: %w", err)
	}
}
