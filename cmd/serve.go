package cmd

import (
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl scheduler and HTTP API",
		Long: `Starts the cron scheduler (crawl rounds, pushes, daily stats) and the
HTTP API, then blocks until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			return application.Run(cmd.Context())
		},
	}
}
