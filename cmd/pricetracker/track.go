package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/realtime-price-tracker/internal/tracker"
)

type trackOutput struct {
	URL     string                `json:"url"`
	Title   string                `json:"title"`
	Price   float64               `json:"price"`
	Rule    string                `json:"rule"`
	History []tracker.Observation `json:"history"`
}

func newTrackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "track <url>",
		Short: "Tracks one product URL and prints its price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			res, err := app.Service().Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(trackOutput{
				URL:     res.URL,
				Title:   res.Title,
				Price:   res.Price,
				Rule:    res.Rule,
				History: res.History,
			}); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			return nil
		},
	}
}
