package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/client"
	"github.com/rubiojr/prospect/pkg/config"
	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/history"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
	"github.com/rubiojr/prospect/pkg/notify"
)

// session is a mounted dashboard plus the stores around it.
type session struct {
	cfg     *config.Config
	creds   auth.Store
	client  *client.Client
	dash    *engine.Dashboard
	history *history.Store
}

type sessionOptions struct {
	notifier  notify.Sink
	confirmer engine.Confirmer
	observers []engine.Observer
	onChange  func(uint64)
}

func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// credentialStore opens the configured store. Keyring entries are keyed by
// the API host so several deployments can coexist.
func credentialStore(cfg *config.Config) (auth.Store, error) {
	account := cfg.API.BaseURL
	if u, err := url.Parse(cfg.API.BaseURL); err == nil && u.Host != "" {
		account = u.Host
	}
	store, err := auth.NewStore(cfg.Auth, account)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	return store, nil
}

// openSession builds and mounts a dashboard for cfg. Searches and exports are
// recorded in the history database.
func openSession(ctx context.Context, cfg *config.Config, opts sessionOptions) (*session, error) {
	store, err := credentialStore(cfg)
	if err != nil {
		return nil, err
	}
	cl, err := client.NewFromConfig(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	hist, err := history.OpenInDir(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	if opts.notifier == nil {
		opts.notifier = notify.LogSink(log.ForService("notify"))
	}
	eo := engine.OptionsFromConfig(cfg)
	eo.Service = cl
	eo.Credentials = store
	eo.Notifier = opts.notifier
	eo.Confirmer = opts.confirmer
	eo.Observer = engine.Observers(append([]engine.Observer{hist.Observer()}, opts.observers...)...)
	eo.OnChange = opts.onChange

	dash, err := engine.New(eo)
	if err != nil {
		hist.Close()
		return nil, fmt.Errorf("creating dashboard: %w", err)
	}
	if err := dash.Mount(ctx); err != nil {
		hist.Close()
		return nil, fmt.Errorf("mounting dashboard: %w", err)
	}
	return &session{cfg: cfg, creds: store, client: cl, dash: dash, history: hist}, nil
}

func (s *session) Close() {
	s.dash.Unmount()
	s.dash.Exports.Wait()
	if err := s.history.Close(); err != nil {
		log.ForService("history").Warnf("closing history: %v", err)
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "industry",
			Aliases: []string{"i"},
			Usage:   "Industry id. Can be used multiple times",
		},
		&cli.StringFlag{
			Name:  "country",
			Usage: "Country code",
		},
		&cli.StringFlag{
			Name:  "city",
			Usage: "City name (requires --country)",
		},
		&cli.BoolFlag{
			Name:  "has-email",
			Usage: "Only leads with an email address",
		},
		&cli.BoolFlag{
			Name:  "has-phone",
			Usage: "Only leads with a phone number",
		},
		&cli.BoolFlag{
			Name:  "verified-only",
			Usage: "Only verified leads",
		},
		&cli.StringFlag{
			Name:  "preset",
			Usage: "Load filters from a YAML preset file; flags override it",
		},
	}
}

// filtersFromFlags builds the selection from an optional preset (or base)
// overridden by any filter flag that was set.
func filtersFromFlags(c *cli.Command, base leads.FilterSelection) (leads.FilterSelection, error) {
	sel := base
	if path := c.String("preset"); path != "" {
		preset, err := leads.LoadPreset(path)
		if err != nil {
			return leads.FilterSelection{}, err
		}
		sel = preset
	}
	if c.IsSet("industry") {
		sel = sel.WithIndustries(c.StringSlice("industry"))
	}
	if c.IsSet("country") {
		sel = sel.WithCountry(c.String("country"))
	}
	if c.IsSet("city") {
		sel = sel.WithCity(c.String("city"))
	}
	q := sel.Quality()
	if c.IsSet("has-email") {
		q.HasEmail = c.Bool("has-email")
	}
	if c.IsSet("has-phone") {
		q.HasPhone = c.Bool("has-phone")
	}
	if c.IsSet("verified-only") {
		q.VerifiedOnly = c.Bool("verified-only")
	}
	return sel.WithQuality(q), nil
}

// applyFilters installs sel. A city is checked against the city list of
// its country, which is loaded first when needed.
func applyFilters(ctx context.Context, dash *engine.Dashboard, sel leads.FilterSelection) error {
	dash.Filters.Replace(sel.WithCity(""))
	if sel.City() == "" {
		return nil
	}

	// the country change started a background load; this one supersedes it
	// and returns once the list for sel's country is in
	if _, country := dash.Locations.Cities(); country != sel.Country() {
		if err := dash.Locations.LoadCities(ctx, sel.Country()); err != nil {
			log.ForService("locations").Warnf("city %q not checked: %v", sel.City(), err)
		}
	}

	if err := dash.Filters.SetCity(sel.City()); err != nil {
		return fmt.Errorf("city %q of %s: %w", sel.City(), sel.Country(), err)
	}
	return nil
}

// promptConfirmer asks on the terminal before spending low credits.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) ConfirmLowCredit(ctx context.Context, usage leads.UsageSnapshot) (bool, error) {
	fmt.Fprintf(p.out, "Only %d search credits left. Search anyway? [y/N] ", usage.Remaining)
	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(p.in).ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()
	select {
	case a := <-answer:
		return a == "y" || a == "yes", nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// confirmerFor returns the confirmer for a command: --yes always proceeds,
// an interactive terminal prompts, anything else declines.
func confirmerFor(c *cli.Command) engine.Confirmer {
	if c.Bool("yes") {
		return engine.AlwaysConfirm
	}
	if isTerminal(os.Stdin) {
		return promptConfirmer{in: os.Stdin, out: os.Stderr}
	}
	return nil
}

// isTerminal checks if f is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(f.Fd())
}

// terminalWidth is the width of stdout, 100 when it is not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 100
}

// display writes content through a pager when stdout is a terminal.
func display(content string, noPager bool) error {
	if noPager || !isTerminal(os.Stdout) {
		fmt.Print(content)
		return nil
	}

	pagerCmd := os.Getenv("PAGER")
	if pagerCmd == "" {
		for _, pager := range []string{"less", "more"} {
			if _, err := exec.LookPath(pager); err == nil {
				pagerCmd = pager
				break
			}
		}
	}
	if pagerCmd == "" {
		fmt.Print(content)
		return nil
	}

	args := []string{}
	if strings.Contains(pagerCmd, "less") {
		args = []string{"-R", "-S", "-F", "-X"}
	}
	cmd := exec.Command(pagerCmd, args...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
