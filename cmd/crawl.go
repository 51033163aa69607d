package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl round and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			session, err := application.CrawlOnce(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("session %s %s: %d headlines, %d sources ok, %d failed\n",
				session.ID, session.Status, session.HeadlineCount,
				len(session.SourcesOK), len(session.SourcesFailed))
			return nil
		},
	}
}
