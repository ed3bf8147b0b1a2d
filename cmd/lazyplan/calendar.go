package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazyplan/internal/gcal"
	"github.com/Joseda-hg/lazyplan/internal/model"
)

var (
	calendarProject string
	calendarName    string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Publish schedules to Google Calendar",
}

var calendarExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export planned and overtime days as all-day events",
	Long: `Export each task's planned days, and any overtime days, as all-day
events. Re-running the export updates the same events.

Needs calendar.credentials pointing at an OAuth client JSON file. The first
run prints a consent URL and caches the token at calendar.token.

Examples:
  lazyplan calendar export
  lazyplan calendar export --project 6f1c... --calendar Work`,
	RunE: runCalendarExport,
}

func init() {
	calendarExportCmd.Flags().StringVar(&calendarProject, "project", "", "only export this project's tasks")
	calendarExportCmd.Flags().StringVar(&calendarName, "calendar", "primary", "calendar id or name")

	calendarCmd.AddCommand(calendarExportCmd)
}

func runCalendarExport(cmd *cobra.Command, args []string) error {
	cfg := current.cfg.Calendar
	if cfg.Credentials == "" {
		return errors.New("calendar.credentials is not set")
	}
	if cfg.Token == "" {
		cfg.Token = filepath.Join(filepath.Dir(current.configPath), "calendar-token.json")
	}

	store, closeStore, err := current.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	tasks, err := store.ListTasks(ctx, model.Filter{ProjectID: calendarProject})
	if err != nil {
		return err
	}

	srv, err := gcal.NewService(ctx, cfg.Credentials, cfg.Token, cmd.OutOrStdout(), current.logger)
	if err != nil {
		return err
	}
	events, err := gcal.NewGoogleEvents(ctx, srv, calendarName)
	if err != nil {
		return err
	}

	result, err := gcal.NewExporter(events, current.logger).Export(ctx, tasks, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
