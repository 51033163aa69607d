// Package cmd implements the command-line interface for trendwatch.
// It provides the root command and subcommands for running the service and
// one-shot crawl, report, and maintenance operations.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/trendwatch/internal/app"
)

var (
	// cfgFile holds the path to the configuration file
	cfgFile string

	// debug enables debug logging for all commands
	debug bool

	// version can be set at build time via -ldflags
	version = "dev"

	// rootCmd represents the root command for the trendwatch CLI
	rootCmd = &cobra.Command{
		Use:   "trendwatch",
		Short: "Trending-headline aggregation and reporting",
		Long: `Trendwatch polls trending-list sources on a schedule, dedupes the
headlines it sees, and turns the matched ones into reports it can push
to a webhook and serve over HTTP.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early so --debug reaches the logger of every subcommand
	_ = rootCmd.ParseFlags(os.Args[1:])

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newWordsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// newApp builds the application for one command invocation
func newApp() (*app.App, error) {
	return app.New(app.Options{
		ConfigPath: cfgFile,
		Version:    version,
		Debug:      debug,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("trendwatch version %s\n", version)
		},
	}
}
