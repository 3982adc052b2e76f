package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rubiojr/prospect/pkg/client"
	"github.com/rubiojr/prospect/pkg/config"
)

func newClient(cfg *config.Config) (*client.Client, error) {
	store, err := credentialStore(cfg)
	if err != nil {
		return nil, err
	}
	cl, err := client.NewFromConfig(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return cl, nil
}

// CountriesCommand lists the countries leads can be searched in
func CountriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "countries",
		Usage: "List available countries",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "popular",
				Usage: "Only the most searched countries",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			cl, err := newClient(cfg)
			if err != nil {
				return err
			}
			fetch := cl.Countries
			if c.Bool("popular") {
				fetch = cl.PopularCountries
			}
			countries, err := fetch(ctx)
			if err != nil {
				return fmt.Errorf("listing countries: %w", err)
			}
			fmt.Println(strings.Join(countries, "\n"))
			return nil
		},
	}
}

// CitiesCommand lists the cities of a country
func CitiesCommand() *cli.Command {
	return &cli.Command{
		Name:      "cities",
		Usage:     "List the cities of a country",
		ArgsUsage: "COUNTRY",
		Action: func(ctx context.Context, c *cli.Command) error {
			country := strings.TrimSpace(c.Args().First())
			if country == "" {
				return errors.New("country code required")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			cl, err := newClient(cfg)
			if err != nil {
				return err
			}
			cities, err := cl.Cities(ctx, country)
			if err != nil {
				return fmt.Errorf("listing cities of %s: %w", country, err)
			}
			fmt.Println(strings.Join(cities, "\n"))
			return nil
		},
	}
}
