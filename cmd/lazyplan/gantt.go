package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazyplan/internal/chart"
	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
)

var (
	ganttProject string
	ganttPlain   bool
)

var ganttCmd = &cobra.Command{
	Use:   "gantt",
	Short: "Print a Gantt chart",
	Long: `Print a Gantt chart of every project, or of one project's tasks.

Examples:
  lazyplan gantt
  lazyplan gantt --project 6f1c...`,
	RunE: runGantt,
}

func init() {
	ganttCmd.Flags().StringVar(&ganttProject, "project", "", "project id; empty charts all projects")
	ganttCmd.Flags().BoolVar(&ganttPlain, "plain", false, "disable colors")
}

func runGantt(cmd *cobra.Command, args []string) error {
	store, closeStore, err := current.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return err
	}
	tasks, err := store.ListTasks(ctx, model.Filter{ProjectID: ganttProject})
	if err != nil {
		return err
	}

	now := time.Now()
	timeline, err := schedule.BuildTimeline(projects, tasks, ganttProject, now)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), chart.Render(timeline, now, chart.Options{Plain: ganttPlain}))
	return nil
}
