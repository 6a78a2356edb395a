package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			// Run closes the app on shutdown.
			return app.Run(cmd.Context())
		},
	}
}
