package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
)

var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func pausedTask(id, title string, budget float64, minutes int64) model.Task {
	started := monday.Add(9 * time.Hour)
	return model.Task{
		ID:                  id,
		ProjectID:           "p-1",
		Title:               title,
		Status:              model.StatusPaused,
		EffortHours:         &budget,
		CreatedAt:           monday,
		StartedAt:           &started,
		ActualEffortMinutes: minutes,
	}
}

func TestRenderTaskTimeline(t *testing.T) {
	today := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)
	tasks := []model.Task{pausedTask("a", "Audit", 10, 20*60)}
	timeline, err := schedule.BuildTimeline(nil, tasks, "p-1", today)
	if err != nil {
		t.Fatalf("build timeline: %v", err)
	}

	out := Render(timeline, today, Options{Plain: true})
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "Tasks") || !strings.Contains(lines[0], "Jun") {
		t.Fatalf("unexpected header %q", lines[0])
	}

	var row string
	for _, line := range lines {
		if strings.HasPrefix(line, "Audit") {
			row = line
		}
	}
	if row == "" {
		t.Fatalf("expected a row for the task, got:\n%s", out)
	}
	if !strings.Contains(row, " "+strings.Repeat(plannedCell, 2)+overtimeCell+" ") {
		t.Fatalf("expected two planned days then one overtime day, got %q", row)
	}
	if !strings.Contains(row, "Paused · 10h Est. · +1 day overtime") {
		t.Fatalf("unexpected row meta %q", row)
	}
	if !strings.Contains(row, todayCell) {
		t.Fatalf("expected the today marker in %q", row)
	}
	if !strings.Contains(out, "1 tasks · 0% in prod · 10h active · 0 pending review") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "Mon Jun 3 to Sun Jun 16, opens ") {
		t.Fatalf("unexpected window line:\n%s", out)
	}
}

func TestRenderProjectTimeline(t *testing.T) {
	projects := []model.Project{{ID: "p-1", Name: "Website"}}
	tasks := []model.Task{pausedTask("a", "Audit", 15, 0)}
	timeline, err := schedule.BuildTimeline(projects, tasks, "", monday)
	if err != nil {
		t.Fatalf("build timeline: %v", err)
	}

	out := Render(timeline, monday, Options{Plain: true})
	if !strings.HasPrefix(out, "All projects") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "Project · 1 tasks") {
		t.Fatalf("expected the project row meta:\n%s", out)
	}
	if strings.Contains(out, overtimeCell) {
		t.Fatalf("project bars have no overtime:\n%s", out)
	}
	if !strings.Contains(out, "opens 3 days ago") {
		t.Fatalf("expected window lead of three days:\n%s", out)
	}
}

func TestRenderEmpty(t *testing.T) {
	timeline, err := schedule.BuildTimeline(nil, nil, "", monday)
	if err != nil {
		t.Fatalf("build timeline: %v", err)
	}
	out := Render(timeline, monday, Options{Plain: true})
	if !strings.Contains(out, "No tasks to schedule.") {
		t.Fatalf("expected empty message:\n%s", out)
	}
}

func TestPadLabel(t *testing.T) {
	long := padLabel("A rather long task title that will not fit")
	if n := len([]rune(long)); n != labelWidth {
		t.Fatalf("expected %d runes, got %d", labelWidth, n)
	}
	if !strings.HasSuffix(long, "…") {
		t.Fatalf("expected ellipsis, got %q", long)
	}
	if short := padLabel("Audit"); len(short) != labelWidth {
		t.Fatalf("expected padding, got %q", short)
	}
}
