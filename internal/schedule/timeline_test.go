package schedule

import (
	"testing"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

func TestBuildTimelineProjectView(t *testing.T) {
	projects := []model.Project{{ID: "p-1", Name: "Website"}, {ID: "p-2", Name: "Empty"}}
	tasks := []model.Task{
		startedTask("a", monday, hours(15), 0),
		startedTask("b", date(2024, 6, 6), hours(14), 0),
	}

	timeline, err := BuildTimeline(projects, tasks, "", monday)
	if err != nil {
		t.Fatalf("build timeline: %v", err)
	}
	if len(timeline.Items) != 1 {
		t.Fatalf("expected only the project with tasks, got %+v", timeline.Items)
	}
	item := timeline.Items[0]
	if item.Title != "Website" || item.Meta != "2 tasks" || item.SpanDays != 5 || item.OvertimeSpanDays != 0 {
		t.Fatalf("unexpected project item %+v", item)
	}
	if item.Offset != 3 {
		t.Fatalf("expected bar three days into the window, got %d", item.Offset)
	}
	if timeline.Summary.Total != 2 {
		t.Fatalf("expected summary over all tasks, got %+v", timeline.Summary)
	}
}

func TestBuildTimelineTaskView(t *testing.T) {
	other := startedTask("c", monday, hours(1), 0)
	other.ProjectID = "p-2"
	tasks := []model.Task{
		startedTask("a", monday, hours(10), 20*60),
		other,
	}

	timeline, err := BuildTimeline(nil, tasks, "p-1", date(2024, 6, 12))
	if err != nil {
		t.Fatalf("build timeline: %v", err)
	}
	if len(timeline.Items) != 1 {
		t.Fatalf("expected one task bar, got %+v", timeline.Items)
	}
	item := timeline.Items[0]
	if item.Label != "Paused" || item.Meta != "10h Est." {
		t.Fatalf("unexpected labels %+v", item)
	}
	if item.PlannedSpanDays != 2 || item.OvertimeSpanDays != 1 || item.OvertimeStartOffsetDays != 2 {
		t.Fatalf("unexpected geometry %+v", item)
	}
	if item.Offset != 0 || !timeline.Window.Start.Equal(monday) {
		t.Fatalf("expected window to open at the task start, got %v offset %d", timeline.Window.Start, item.Offset)
	}
	if timeline.Summary.Total != 1 {
		t.Fatalf("expected summary scoped to the project, got %+v", timeline.Summary)
	}
	if len(timeline.Columns) != timeline.Window.Length {
		t.Fatalf("expected a column per day")
	}
}
