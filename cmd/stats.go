package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const statsDateLayout = "2006-01-02"

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Manage daily statistics",
	}

	var date string
	recompute := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild one day's per-source aggregates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := time.Now().AddDate(0, 0, -1)
			if date != "" {
				parsed, err := time.Parse(statsDateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
				}
				day = parsed
			}

			application, err := newApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			if err := application.RecomputeStats(cmd.Context(), day); err != nil {
				return err
			}
			fmt.Printf("daily stats recomputed for %s\n", day.Format(statsDateLayout))
			return nil
		},
	}
	recompute.Flags().StringVar(&date, "date", "", "day to rebuild (YYYY-MM-DD), default yesterday")
	cmd.AddCommand(recompute)

	return cmd
}
