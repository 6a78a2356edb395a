package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/realtime-price-tracker/internal/config"
	"github.com/JakeFAU/realtime-price-tracker/internal/server"
	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

// application is what the subcommands need from the wired service. Tests swap
// buildApp for a fake.
type application interface {
	Run(ctx context.Context) error
	Service() *tracker.Service
	Close() error
}

var buildApp = func(ctx context.Context, cfg *config.Config) (application, error) {
	return server.Build(ctx, cfg)
}

type rootOptions struct {
	cfgPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pricetracker",
		Short: "Tracks product prices over time.",
		Long: `pricetracker fetches a product page, extracts its price and title,
records a timestamped observation and reports the price history for that URL.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newTrackCmd(opts))
	return cmd
}

func (o *rootOptions) load(ctx context.Context) (application, error) {
	// A .env file in the working directory seeds the environment; real env vars win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	app, err := buildApp(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application services: %w", err)
	}
	return app, nil
}
