package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/auth"
	"github.com/Joseda-hg/lazyplan/internal/db"
	"github.com/Joseda-hg/lazyplan/internal/logging"
	"github.com/Joseda-hg/lazyplan/internal/model"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func TestTrackingKeysMoveTaskAcrossLanes(t *testing.T) {
	store, clock, cleanup := newTestStore(t)
	defer cleanup()
	project := mustProject(t, store)
	mustTask(t, store, project.ID, "Write docs", 10)

	ui := newTestUI(t, store, clock, model.RoleUser)
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if len(ui.lanes[0]) != 1 {
		t.Fatalf("expected the task in the not started lane, got %+v", ui.lanes)
	}

	if err := ui.startTask(nil, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ui.lane != 1 || ui.focus != viewActive || len(ui.lanes[1]) != 1 {
		t.Fatalf("expected selection to follow the task to in progress, lane %d focus %s", ui.lane, ui.focus)
	}

	clock.now = clock.now.Add(90 * time.Minute)
	if err := ui.pauseTask(nil, nil); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if ui.lane != 2 || len(ui.lanes[2]) != 1 {
		t.Fatalf("expected the task in the paused lane, got lane %d", ui.lane)
	}
	if ui.status != "Write docs paused (1h 30m)" {
		t.Fatalf("unexpected status %q", ui.status)
	}
	if len(ui.history) != 3 || ui.history[0].EventType != "paused" {
		t.Fatalf("expected history reloaded for the selected task, got %+v", ui.history)
	}

	if err := ui.pauseTask(nil, nil); err != nil {
		t.Fatalf("second pause: %v", err)
	}
	if !strings.Contains(ui.status, "no open session") {
		t.Fatalf("expected a rejected pause to be reported, got %q", ui.status)
	}

	if err := ui.stopTask(nil, nil); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if ui.lane != 3 || ui.lanes[3][0].Status != model.StatusCompleted || ui.lanes[3][0].ActualEffortMinutes != 90 {
		t.Fatalf("expected the completed task in review, got %+v", ui.lanes[3])
	}
}

func TestManagerOnlyActions(t *testing.T) {
	store, clock, cleanup := newTestStore(t)
	defer cleanup()
	project := mustProject(t, store)
	mustTask(t, store, project.ID, "Keep me", 0)

	t.Run("user cannot delete", func(t *testing.T) {
		ui := newTestUI(t, store, clock, model.RoleUser)
		if err := ui.loadTasks(); err != nil {
			t.Fatalf("load tasks: %v", err)
		}
		if err := ui.deleteTask(nil, nil); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if ui.status == "" || taskCount(t, store) != 1 {
			t.Fatalf("expected delete to be refused, status %q", ui.status)
		}
		if err := ui.addTask(nil, nil); err != nil || ui.form != nil {
			t.Fatalf("expected no form for a user, err %v", err)
		}
	})

	t.Run("manager deletes", func(t *testing.T) {
		ui := newTestUI(t, store, clock, model.RoleManager)
		if err := ui.loadTasks(); err != nil {
			t.Fatalf("load tasks: %v", err)
		}
		if err := ui.deleteTask(nil, nil); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if taskCount(t, store) != 0 {
			t.Fatalf("expected the task to be deleted")
		}
	})
}

func TestFormCreatesAndEditsTask(t *testing.T) {
	store, clock, cleanup := newTestStore(t)
	defer cleanup()
	project := mustProject(t, store)

	ui := newTestUI(t, store, clock, model.RoleManager)
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if err := ui.addTask(nil, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ui.form.fields[fieldProject].Value != project.Name {
		t.Fatalf("expected the first project preselected, got %q", ui.form.fields[fieldProject].Value)
	}

	ui.form.fields[fieldTitle].Value = "Write docs"
	ui.form.fields[fieldBudget].Value = "-2"
	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ui.form == nil || ui.status == "" {
		t.Fatalf("expected a negative budget to keep the form open with an error")
	}

	ui.form.fields[fieldBudget].Value = "7.5h"
	ui.form.fields[fieldAssignee].Value = "manager@example.com"
	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ui.form != nil {
		t.Fatalf("expected the form to close, status %q", ui.status)
	}
	selected := ui.selectedTask()
	if selected == nil || selected.Title != "Write docs" || selected.EffortHours == nil || *selected.EffortHours != 7.5 {
		t.Fatalf("expected the new task selected, got %+v", selected)
	}
	if selected.AssignedToUserID == nil || *selected.AssignedToUserID != ui.viewer.UserID {
		t.Fatalf("expected the task assigned to the manager")
	}

	if err := ui.editTask(nil, nil); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if ui.form.fields[fieldBudget].Value != "7.5" {
		t.Fatalf("expected the budget in the edit form, got %q", ui.form.fields[fieldBudget].Value)
	}
	ui.form.fields[fieldBudget].Value = ""
	ui.form.fields[fieldStatus].Value = string(model.StatusInTest)
	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit edit: %v", err)
	}
	edited := ui.selectedTask()
	if edited == nil || edited.EffortHours != nil || edited.Status != model.StatusInTest || ui.lane != 3 {
		t.Fatalf("expected the edited task in review without a budget, got %+v", edited)
	}
}

func TestFiltersReloadLanes(t *testing.T) {
	store, clock, cleanup := newTestStore(t)
	defer cleanup()
	project := mustProject(t, store)
	mustTask(t, store, project.ID, "Write docs", 0)
	mustTask(t, store, project.ID, "Fix login", 0)

	ui := newTestUI(t, store, clock, model.RoleUser)
	ui.filter.Query = "DOCS"
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if len(ui.lanes[0]) != 1 || ui.lanes[0][0].Title != "Write docs" {
		t.Fatalf("expected search to narrow the lane, got %+v", ui.lanes[0])
	}

	if err := ui.toggleMine(nil, nil); err != nil {
		t.Fatalf("toggle mine: %v", err)
	}
	if ui.filter.AssigneeID != ui.viewer.UserID || len(ui.lanes[0]) != 0 {
		t.Fatalf("expected no tasks assigned to the viewer, got %+v", ui.lanes[0])
	}

	if err := ui.clearFilters(nil, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(ui.lanes[0]) != 2 {
		t.Fatalf("expected all tasks after clearing filters, got %d", len(ui.lanes[0]))
	}
}

func TestGroupByLane(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Status: model.StatusNotStarted},
		{ID: "b", Status: model.StatusInDev},
		{ID: "c", Status: model.StatusInTest},
		{ID: "d", Status: model.StatusCancelled},
		{ID: "e", Status: model.StatusInDevelopment},
	}
	grouped := groupByLane(tasks)
	want := []int{1, 2, 0, 1, 1}
	for i, count := range want {
		if len(grouped[i]) != count {
			t.Fatalf("lane %s: expected %d tasks, got %d", lanes[i].title, count, len(grouped[i]))
		}
	}
}

func TestFormatters(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	budget := 2.0
	open := now.Add(-30 * time.Minute)
	task := model.Task{Title: "Audit", EffortHours: &budget, ActualEffortMinutes: 60, CurrentSessionStartedAt: &open}

	if got := formatTaskSummary(task, now); got != "● Audit | 1h 30m 0s | 75%" {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := formatBudget(task, now); got != "2h (75% used, normal)" {
		t.Fatalf("unexpected budget %q", got)
	}
	if severityCode(task, now) != 0 {
		t.Fatalf("expected no color under the warning threshold")
	}
	task.ActualEffortMinutes = 120
	if severityCode(task, now) != 31 {
		t.Fatalf("expected red once over budget")
	}

	entry := model.HistoryEntry{EventType: "paused", Details: "session +30m", CreatedAt: now.Add(-2 * time.Minute)}
	if got := formatHistoryLine(entry, now); got != "2 minutes ago | paused | session +30m" {
		t.Fatalf("unexpected history line %q", got)
	}
}

func TestCycleValue(t *testing.T) {
	options := []string{"a", "b", "c"}
	if got := cycleValue(options, "c", 1); got != "a" {
		t.Fatalf("expected wrap to a, got %q", got)
	}
	if got := cycleValue(options, "a", -1); got != "c" {
		t.Fatalf("expected wrap to c, got %q", got)
	}
	if got := cycleValue(nil, "a", 1); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func taskCount(t *testing.T, store *db.Store) int {
	t.Helper()
	tasks, err := store.ListTasks(context.Background(), model.Filter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	return len(tasks)
}

func newTestUI(t *testing.T, store *db.Store, clock *testClock, role model.Role) *UI {
	t.Helper()
	email := strings.ToLower(string(role)) + "@example.com"
	user, err := store.UserByEmail(context.Background(), email)
	if err != nil {
		user, err = store.CreateUser(context.Background(), model.User{
			ID:           string(role) + "-id",
			Email:        email,
			PasswordHash: "hash",
			Role:         role,
			CreatedAt:    clock.now,
			UpdatedAt:    clock.now,
		})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	ui := newUI(store, auth.ViewerOf(user), logging.New(logging.Options{Writer: io.Discard}))
	ui.now = clock.Now
	return ui
}

func mustProject(t *testing.T, store *db.Store) model.Project {
	t.Helper()
	project, err := store.CreateProject(context.Background(), model.ProjectInput{Name: "Website"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func mustTask(t *testing.T, store *db.Store, projectID, title string, budget float64) model.Task {
	t.Helper()
	input := model.TaskInput{ProjectID: projectID, Title: title}
	if budget > 0 {
		input.EffortHours = &budget
	}
	task, err := store.CreateTask(context.Background(), input)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func newTestStore(t *testing.T) (*db.Store, *testClock, func()) {
	t.Helper()
	dbConn, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	clock := &testClock{now: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
	store := db.NewStore(dbConn, db.DriverSQLite)
	store.Now = clock.Now
	return store, clock, func() {
		_ = dbConn.Close()
	}
}
