package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Manage word groups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Load the word file into storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			if err := application.SyncWords(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("word groups synced")
			return nil
		},
	})

	return cmd
}
