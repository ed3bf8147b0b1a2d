package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazyplan/internal/auth"
	"github.com/Joseda-hg/lazyplan/internal/db"
	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
)

const seedAdminEmail = "admin@lazyplan.local"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a demo admin, project and tasks",
	Long: `Insert a demo admin, project and tasks dated relative to today.

The admin signs in as ` + seedAdminEmail + ` with the default password.`,
	RunE: runSeed,
}

// seedTask is a demo task; days are offsets from today.
type seedTask struct {
	title    string
	hours    float64
	status   model.Status
	started  int
	minutes  int64
	finished int
}

var seedTasks = []seedTask{
	{title: "Gather requirements", hours: 7.5, status: model.StatusInProd, started: -10, minutes: 420, finished: -9},
	{title: "Design schema", hours: 15, status: model.StatusCompleted, started: -7, minutes: 960, finished: -4},
	{title: "Build API", hours: 30, status: model.StatusPaused, started: -3, minutes: 1200},
	{title: "Write docs", hours: 6.5, status: model.StatusNotStarted},
}

func runSeed(cmd *cobra.Command, args []string) error {
	store, closeStore, err := current.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	authService, err := current.authService(store)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	admin, err := store.UserByEmail(ctx, seedAdminEmail)
	if errors.Is(err, db.ErrNotFound) {
		admin, err = authService.CreateUser(ctx, model.UserInput{
			FirstName: "Demo",
			LastName:  "Admin",
			Email:     seedAdminEmail,
			Role:      string(model.RoleAdmin),
			Password:  auth.DefaultPassword,
		})
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	project, err := store.CreateProject(ctx, model.ProjectInput{
		Name:            "Demo project",
		Description:     "Sample schedule with one overrun task",
		UpdatedByUserID: &admin.ID,
	})
	if err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	today := schedule.Day(time.Now())
	for _, st := range seedTasks {
		if err := insertSeedTask(ctx, store, project.ID, admin.ID, today, st); err != nil {
			return err
		}
	}

	current.logger.Info("seeded demo data", "project", project.ID, "tasks", len(seedTasks))
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %q with %d tasks; sign in as %s / %s\n",
		project.Name, len(seedTasks), seedAdminEmail, auth.DefaultPassword)
	return nil
}

func insertSeedTask(ctx context.Context, store *db.Store, projectID, adminID string, today time.Time, st seedTask) error {
	hours := st.hours
	created := today.AddDate(0, 0, min(st.started, 0)-1)
	task, err := store.CreateTask(ctx, model.TaskInput{
		ProjectID:        projectID,
		Title:            st.title,
		EffortHours:      &hours,
		AssignedToUserID: &adminID,
		UpdatedByUserID:  &adminID,
		CreatedAt:        &created,
	})
	if err != nil {
		return fmt.Errorf("seed task %q: %w", st.title, err)
	}
	if st.status == model.StatusNotStarted {
		return nil
	}

	patch := model.TaskPatch{
		Status:              model.Some(string(st.status)),
		StartedAt:           model.Some(today.AddDate(0, 0, st.started).Add(9 * time.Hour)),
		ActualEffortMinutes: model.Some(st.minutes),
	}
	switch st.status {
	case model.StatusPaused:
		patch.PausedAt = model.Some(today.Add(-time.Hour))
	case model.StatusCompleted, model.StatusInProd:
		patch.CompletedAt = model.Some(today.AddDate(0, 0, st.finished).Add(17 * time.Hour))
	}
	if _, err := store.UpdateTask(ctx, task.ID, patch); err != nil {
		return fmt.Errorf("seed task %q: %w", st.title, err)
	}
	return nil
}
