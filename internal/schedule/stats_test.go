package schedule

import (
	"testing"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

func assigned(id, userID string, status model.Status, budget *float64) model.Task {
	return model.Task{ID: id, ProjectID: "p-1", Title: id, Status: status, EffortHours: budget, AssignedToUserID: &userID, CreatedAt: monday}
}

func TestSummarize(t *testing.T) {
	tasks := []model.Task{
		assigned("a", "u-1", model.StatusInProd, nil),
		assigned("b", "u-1", model.StatusInDevelopment, hours(8)),
		assigned("c", "u-2", model.StatusPaused, hours(4.5)),
		assigned("d", "u-2", model.StatusInTest, hours(3)),
	}

	summary := Summarize(tasks)
	if summary.Total != 4 || summary.InProd != 1 || summary.CompletionRate != 25 {
		t.Fatalf("unexpected completion figures: %+v", summary)
	}
	if summary.ActiveWorkloadHours != 12.5 {
		t.Fatalf("expected 12.5 active hours, got %v", summary.ActiveWorkloadHours)
	}
	if summary.PendingReview != 1 {
		t.Fatalf("expected 1 pending review, got %d", summary.PendingReview)
	}

	if got := Summarize(nil); got.CompletionRate != 0 {
		t.Fatalf("expected zero rate for no tasks, got %+v", got)
	}
}

func TestProfileFor(t *testing.T) {
	tasks := []model.Task{
		assigned("a", "u-1", model.StatusCompleted, nil),
		assigned("b", "u-1", model.StatusInDevelopment, nil),
		assigned("c", "u-1", model.StatusNotStarted, nil),
		assigned("d", "u-2", model.StatusPaused, nil),
	}

	profile := ProfileFor("u-1", tasks)
	if profile.Total != 3 || profile.Completed != 1 || profile.InProgress != 1 || profile.ToDo != 1 || profile.Paused != 0 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.CompletedPercent != 33 {
		t.Fatalf("expected 33%%, got %d", profile.CompletedPercent)
	}
}

func TestMiniSchedule(t *testing.T) {
	plannedStart := date(2024, 6, 5)
	tasks := []model.Task{
		assigned("inside", "u-1", model.StatusInDevelopment, hours(15)),
		assigned("excluded", "u-1", model.StatusInDevelopment, hours(15)),
		assigned("someone-else", "u-2", model.StatusInDevelopment, hours(15)),
		assigned("long-ago", "u-1", model.StatusCompleted, hours(7.5)),
		assigned("last-day", "u-1", model.StatusNotStarted, nil),
		assigned("after", "u-1", model.StatusNotStarted, nil),
	}
	tasks[3].CreatedAt = date(2024, 5, 20)
	tasks[4].CreatedAt = date(2024, 6, 9)
	tasks[5].CreatedAt = date(2024, 6, 10)

	mini := MiniSchedule(tasks, "u-1", "excluded", plannedStart)
	if !mini.Start.Equal(monday) || mini.Days != 7 {
		t.Fatalf("unexpected window %+v", mini)
	}
	if len(mini.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", mini.Rows)
	}

	first := mini.Rows[0]
	if first.TaskID != "inside" || first.SpanDays != 2 || first.LeftPercent != 0 || first.WidthPercent != float64(2)/7*100 {
		t.Fatalf("unexpected first row %+v", first)
	}
	last := mini.Rows[1]
	if last.TaskID != "last-day" || last.LeftPercent != float64(6)/7*100 || last.WidthPercent != float64(1)/7*100 {
		t.Fatalf("unexpected last row %+v", last)
	}

	if rows := MiniSchedule(tasks, "", "", plannedStart).Rows; len(rows) != 0 {
		t.Fatalf("expected no rows without an assignee")
	}
}
