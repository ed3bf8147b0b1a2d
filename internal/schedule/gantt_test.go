package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

func hours(value float64) *float64 {
	return &value
}

func startedTask(id string, created time.Time, budget *float64, minutes int64) model.Task {
	started := created.Add(9 * time.Hour)
	return model.Task{
		ID:                  id,
		ProjectID:           "p-1",
		Title:               id,
		Status:              model.StatusPaused,
		EffortHours:         budget,
		CreatedAt:           created,
		StartedAt:           &started,
		ActualEffortMinutes: minutes,
	}
}

func TestComputeTaskPlannedSpan(t *testing.T) {
	task := startedTask("t-1", monday, hours(15), 0)
	metrics, err := ComputeTask(task, monday.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if !metrics.PlannedEnd.Equal(date(2024, 6, 4)) {
		t.Fatalf("expected planned end 2024-06-04, got %v", metrics.PlannedEnd)
	}
	if metrics.PlannedSpanDays != 2 {
		t.Fatalf("expected planned span 2, got %d", metrics.PlannedSpanDays)
	}
	if metrics.HasOvertime || metrics.SpanDays != 2 {
		t.Fatalf("expected no overtime, got %+v", metrics)
	}
}

func TestComputeTaskDetectsOvertime(t *testing.T) {
	task := startedTask("t-1", monday, hours(10), 20*60)
	metrics, err := ComputeTask(task, date(2024, 6, 12))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if !metrics.ActualEnd.After(metrics.PlannedEnd) {
		t.Fatalf("expected actual end after planned end, got %+v", metrics)
	}
	if !metrics.PlannedEnd.Equal(date(2024, 6, 4)) || !metrics.ActualEnd.Equal(date(2024, 6, 5)) {
		t.Fatalf("unexpected ends: planned %v actual %v", metrics.PlannedEnd, metrics.ActualEnd)
	}
	if !metrics.HasOvertime || metrics.OvertimeSpanDays != 1 {
		t.Fatalf("expected one overtime day, got %+v", metrics)
	}
	if metrics.OvertimeStartOffsetDays != metrics.PlannedSpanDays || metrics.SpanDays != 3 {
		t.Fatalf("unexpected bar geometry: %+v", metrics)
	}
	if metrics.ActualHours != 20 {
		t.Fatalf("expected 20 actual hours, got %v", metrics.ActualHours)
	}
}

func TestComputeTaskCountsOpenSession(t *testing.T) {
	task := startedTask("t-1", monday, hours(7.5), 7*60)
	session := monday.Add(9 * time.Hour)
	task.Status = model.StatusInDevelopment
	task.CurrentSessionStartedAt = &session

	metrics, err := ComputeTask(task, session.Add(90*time.Minute+30*time.Second))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if metrics.ActualHours != 8.5 {
		t.Fatalf("expected 8.5 hours including the open session, got %v", metrics.ActualHours)
	}
	if !metrics.HasOvertime {
		t.Fatalf("expected open session to push into overtime")
	}
}

func TestComputeTaskUnstartedPastTaskStartsToday(t *testing.T) {
	task := model.Task{ID: "t-1", ProjectID: "p-1", EffortHours: hours(7.5), CreatedAt: monday}
	now := time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)

	metrics, err := ComputeTask(task, now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !metrics.PlannedStart.Equal(monday) {
		t.Fatalf("expected planned start to stay on creation day, got %v", metrics.PlannedStart)
	}
	if !metrics.EffectiveStart.Equal(date(2024, 6, 12)) {
		t.Fatalf("expected effective start today, got %v", metrics.EffectiveStart)
	}
	if metrics.HasOvertime {
		t.Fatalf("idle task must not accrue overtime")
	}
}

func TestComputeTaskRejectsInvalidBudget(t *testing.T) {
	task := startedTask("t-1", monday, hours(-4), 0)
	if _, err := ComputeTask(task, monday); !errors.Is(err, model.ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
}

func TestComputeTaskWithoutBudget(t *testing.T) {
	task := startedTask("t-1", monday, nil, 0)
	metrics, err := ComputeTask(task, monday)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if metrics.SpanDays != 1 || !metrics.PlannedEnd.Equal(monday) {
		t.Fatalf("expected single day bar, got %+v", metrics)
	}
}

func TestComputeProjectSpansUnion(t *testing.T) {
	project := model.Project{ID: "p-1", Name: "Website"}
	tasks := []model.Task{
		startedTask("early", monday, hours(15), 0),
		startedTask("late", date(2024, 6, 6), hours(14), 0),
		{ID: "other", ProjectID: "p-2", CreatedAt: monday},
	}

	metrics, ok, err := ComputeProject(project, tasks, monday)
	if err != nil || !ok {
		t.Fatalf("compute project: ok=%v err=%v", ok, err)
	}
	if metrics.TaskCount != 2 {
		t.Fatalf("expected 2 tasks, got %d", metrics.TaskCount)
	}
	if !metrics.Start.Equal(monday) || !metrics.End.Equal(date(2024, 6, 7)) {
		t.Fatalf("unexpected project range %v - %v", metrics.Start, metrics.End)
	}
	if metrics.SpanDays != 5 {
		t.Fatalf("expected span 5, got %d", metrics.SpanDays)
	}

	if _, ok, err := ComputeProject(model.Project{ID: "empty"}, tasks, monday); ok || err != nil {
		t.Fatalf("expected empty project to be skipped, got ok=%v err=%v", ok, err)
	}
}

func TestNewWindow(t *testing.T) {
	today := date(2024, 6, 10)

	empty := NewWindow(nil, today)
	if !empty.Start.Equal(date(2024, 6, 7)) || empty.Length != 14 {
		t.Fatalf("unexpected default window %+v", empty)
	}

	window := NewWindow([]Bar{{Start: date(2024, 6, 1), SpanDays: 20}, {Start: today, SpanDays: 2}}, today)
	if !window.Start.Equal(date(2024, 6, 1)) {
		t.Fatalf("expected window to open at earliest bar, got %v", window.Start)
	}
	if window.Length != 23 {
		t.Fatalf("expected 23 days, got %d", window.Length)
	}
	if window.Offset(today) != 9 {
		t.Fatalf("expected today at column 9, got %d", window.Offset(today))
	}

	columns := window.Columns(today)
	if len(columns) != window.Length {
		t.Fatalf("expected %d columns, got %d", window.Length, len(columns))
	}
	if !columns[0].Weekend || columns[2].Weekend || !columns[9].Today {
		t.Fatalf("unexpected column flags: %+v", columns[:10])
	}
}
