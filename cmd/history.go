package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/history"
	"github.com/rubiojr/prospect/pkg/render"
)

var historyHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")).Padding(0, 1)

// HistoryCommand lists recent searches and exports
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent searches and exports",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "exports",
				Usage: "Show export jobs instead of searches",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store, err := history.OpenInDir(cfg.StorageDir)
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}
			defer store.Close()

			limit := c.Int("limit")
			if c.Bool("exports") {
				entries, err := store.RecentExports(ctx, limit)
				if err != nil {
					return fmt.Errorf("listing exports: %w", err)
				}
				fmt.Println(exportsTable(entries))
				return nil
			}
			entries, err := store.RecentSearches(ctx, limit)
			if err != nil {
				return fmt.Errorf("listing searches: %w", err)
			}
			fmt.Println(searchesTable(entries))
			return nil
		},
	}
}

func historyTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return historyHeaderStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func searchesTable(entries []history.SearchEntry) string {
	if len(entries) == 0 {
		return "No searches yet."
	}
	t := historyTable("When", "Filters", "Page", "Leads")
	for _, e := range entries {
		t.Row(
			render.FormatTime(e.At),
			render.Filters(e.Filters),
			fmt.Sprintf("%d/%d", e.Page, e.TotalPages),
			render.Number(e.Total),
		)
	}
	return t.Render()
}

func exportsTable(entries []history.ExportEntry) string {
	if len(entries) == 0 {
		return "No exports yet."
	}
	t := historyTable("When", "Job", "Format", "Filters")
	for _, e := range entries {
		t.Row(render.FormatTime(e.At), e.JobID, string(e.Format), render.Filters(e.Filters))
	}
	return t.Render()
}
