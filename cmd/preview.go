package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/render"
)

// PreviewCommand creates the preview command
func PreviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Estimate how many leads match the filters without spending credits",
		Flags: filterFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			sess, err := openSession(ctx, cfg, sessionOptions{})
			if err != nil {
				return err
			}
			defer sess.Close()

			sel, err := filtersFromFlags(c, sess.dash.Filters.Snapshot())
			if err != nil {
				return err
			}
			if sel.Empty() {
				return errors.New("select at least one filter")
			}
			// hold the debounce open; Flush runs the preview synchronously
			sess.dash.Preview.SetDelay(time.Hour)
			if err := applyFilters(ctx, sess.dash, sel); err != nil {
				return err
			}
			sess.dash.Preview.Flush()

			st := sess.dash.Preview.State()
			if st.Unavailable || st.Estimate == nil {
				return errors.New("estimate unavailable")
			}
			fmt.Println(render.Filters(sel))
			fmt.Println(render.New(terminalWidth()).Preview(st))
			return nil
		},
	}
}
