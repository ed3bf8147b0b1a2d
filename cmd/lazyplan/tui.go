package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazyplan/internal/auth"
	"github.com/Joseda-hg/lazyplan/internal/logging"
	"github.com/Joseda-hg/lazyplan/internal/tui"
)

var tuiEmail string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal client",
	Long: `Open the terminal client as an existing user.

The client logs to log.path so the screen stays clean.

Examples:
  lazyplan tui --email admin@lazyplan.local`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiEmail, "email", "", "email of the user to act as")
	_ = tuiCmd.MarkFlagRequired("email")
}

func runTUI(cmd *cobra.Command, args []string) error {
	store, closeStore, err := current.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	user, err := store.UserByEmail(cmd.Context(), tuiEmail)
	if err != nil {
		return fmt.Errorf("find user %s: %w", tuiEmail, err)
	}

	logger, closer, err := logging.NewFile(current.cfg.Log.Path, current.cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	return tui.Run(store, auth.ViewerOf(user), logger)
}
