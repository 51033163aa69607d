package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/trendwatch/internal/models"
)

func newReportCmd() *cobra.Command {
	var (
		mode   string
		doPush bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a report and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedMode, err := models.ParseReportMode(mode)
			if err != nil {
				return err
			}

			application, err := newApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			rep, record, err := application.GenerateReport(cmd.Context(), parsedMode, doPush)
			emptySkip := errors.Is(err, models.ErrEmptyReport)
			if err != nil && !emptySkip {
				return err
			}

			out, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))

			if doPush {
				switch {
				case emptySkip:
					fmt.Println("push skipped: report is empty")
				case record != nil:
					fmt.Printf("push: %s\n", record.Status)
				default:
					fmt.Println("push skipped: repeat content")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "daily", "report mode: daily, incremental, or current")
	cmd.Flags().BoolVar(&doPush, "push", false, "dispatch the report to the configured webhook")
	return cmd
}
