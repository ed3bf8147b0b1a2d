package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

// Item is one row of a timeline.
type Item struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	Label                   string    `json:"label"`
	Meta                    string    `json:"meta"`
	Status                  string    `json:"status,omitempty"`
	Start                   time.Time `json:"start"`
	Offset                  int       `json:"offset"`
	PlannedSpanDays         int       `json:"plannedSpanDays"`
	OvertimeSpanDays        int       `json:"overtimeSpanDays"`
	OvertimeStartOffsetDays int       `json:"overtimeStartOffsetDays"`
	SpanDays                int       `json:"spanDays"`
}

func (i Item) Bar() Bar {
	return Bar{Start: i.Start, SpanDays: i.SpanDays}
}

type Timeline struct {
	ProjectID string   `json:"projectId,omitempty"`
	Window    Window   `json:"window"`
	Columns   []Column `json:"columns"`
	Items     []Item   `json:"items"`
	Summary   Summary  `json:"summary"`
}

// BuildTimeline lays out one bar per project when projectID is empty, and one
// bar per task of that project otherwise.
func BuildTimeline(projects []model.Project, tasks []model.Task, projectID string, now time.Time) (Timeline, error) {
	timeline := Timeline{ProjectID: projectID, Items: []Item{}}

	scoped := tasks
	if projectID == "" {
		for _, project := range projects {
			metrics, ok, err := ComputeProject(project, tasks, now)
			if err != nil {
				return Timeline{}, fmt.Errorf("project %s: %w", project.ID, err)
			}
			if !ok {
				continue
			}
			timeline.Items = append(timeline.Items, Item{
				ID:              project.ID,
				Title:           project.Name,
				Label:           "Project",
				Meta:            fmt.Sprintf("%d tasks", metrics.TaskCount),
				Start:           metrics.Start,
				PlannedSpanDays: metrics.SpanDays,
				SpanDays:        metrics.SpanDays,
			})
		}
	} else {
		scoped = nil
		for _, task := range tasks {
			if task.ProjectID != projectID {
				continue
			}
			scoped = append(scoped, task)
			metrics, err := ComputeTask(task, now)
			if err != nil {
				return Timeline{}, fmt.Errorf("task %s: %w", task.ID, err)
			}
			timeline.Items = append(timeline.Items, Item{
				ID:                      task.ID,
				Title:                   task.Title,
				Label:                   task.Status.Label(),
				Meta:                    estimate(task),
				Status:                  string(task.Status),
				Start:                   metrics.EffectiveStart,
				PlannedSpanDays:         metrics.PlannedSpanDays,
				OvertimeSpanDays:        metrics.OvertimeSpanDays,
				OvertimeStartOffsetDays: metrics.OvertimeStartOffsetDays,
				SpanDays:                metrics.SpanDays,
			})
		}
	}

	bars := make([]Bar, 0, len(timeline.Items))
	for _, item := range timeline.Items {
		bars = append(bars, item.Bar())
	}
	timeline.Window = NewWindow(bars, now)
	timeline.Columns = timeline.Window.Columns(now)
	for i := range timeline.Items {
		timeline.Items[i].Offset = timeline.Window.Offset(timeline.Items[i].Start)
	}
	timeline.Summary = Summarize(scoped)
	return timeline, nil
}

func estimate(task model.Task) string {
	budget, ok := task.Budget()
	if !ok || budget == 0 {
		return "-"
	}
	return strconv.FormatFloat(budget, 'f', -1, 64) + "h Est."
}
