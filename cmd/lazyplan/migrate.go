package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening the store migrates it.
		_, closeStore, err := current.openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date\n", current.cfg.Database.Driver)
		return nil
	},
}
