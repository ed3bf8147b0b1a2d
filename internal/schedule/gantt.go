package schedule

import (
	"math"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/tracking"
)

// TaskMetrics is the Gantt geometry of one task. All dates are calendar
// days in the location of the clock used to compute them.
type TaskMetrics struct {
	TaskID                  string    `json:"taskId"`
	PlannedStart            time.Time `json:"plannedStart"`
	EffectiveStart          time.Time `json:"effectiveStart"`
	PlannedEnd              time.Time `json:"plannedEnd"`
	ActualEnd               time.Time `json:"actualEnd"`
	BudgetHours             float64   `json:"budgetHours"`
	ActualHours             float64   `json:"actualHours"`
	PlannedSpanDays         int       `json:"plannedSpanDays"`
	HasOvertime             bool      `json:"hasOvertime"`
	OvertimeSpanDays        int       `json:"overtimeSpanDays"`
	OvertimeStartOffsetDays int       `json:"overtimeStartOffsetDays"`
	SpanDays                int       `json:"spanDays"`
}

func ComputeTask(task model.Task, now time.Time) (TaskMetrics, error) {
	if err := model.ValidateBudget(task.EffortHours); err != nil {
		return TaskMetrics{}, err
	}
	budget, _ := task.Budget()

	today := Day(now)
	plannedStart := Day(task.CreatedAt.In(now.Location()))

	// A task never started does not accrue overtime for the days it sat idle.
	effectiveStart := plannedStart
	if task.StartedAt == nil && plannedStart.Before(today) {
		effectiveStart = today
	}

	actualHours := tracking.Measure(task, now).Hours()
	plannedEnd := ProjectEnd(effectiveStart, budget)
	actualEnd := ProjectEnd(effectiveStart, math.Max(budget, actualHours))

	metrics := TaskMetrics{
		TaskID:          task.ID,
		PlannedStart:    plannedStart,
		EffectiveStart:  effectiveStart,
		PlannedEnd:      plannedEnd,
		ActualEnd:       actualEnd,
		BudgetHours:     budget,
		ActualHours:     actualHours,
		PlannedSpanDays: DaysBetween(effectiveStart, plannedEnd) + 1,
	}
	if actualEnd.After(plannedEnd) {
		metrics.HasOvertime = true
		metrics.OvertimeSpanDays = DaysBetween(plannedEnd, actualEnd)
		metrics.OvertimeStartOffsetDays = metrics.PlannedSpanDays
	}
	metrics.SpanDays = metrics.PlannedSpanDays + metrics.OvertimeSpanDays
	return metrics, nil
}

// ProjectMetrics is the aggregated bar of a project: the union of its task
// bars.
type ProjectMetrics struct {
	ProjectID string        `json:"projectId"`
	Name      string        `json:"name"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	SpanDays  int           `json:"spanDays"`
	TaskCount int           `json:"taskCount"`
	Tasks     []TaskMetrics `json:"tasks"`
}

// ComputeProject aggregates the tasks belonging to project. It reports false
// when the project has no tasks.
func ComputeProject(project model.Project, tasks []model.Task, now time.Time) (ProjectMetrics, bool, error) {
	metrics := ProjectMetrics{ProjectID: project.ID, Name: project.Name}
	for _, task := range tasks {
		if task.ProjectID != project.ID {
			continue
		}
		taskMetrics, err := ComputeTask(task, now)
		if err != nil {
			return ProjectMetrics{}, false, err
		}
		if len(metrics.Tasks) == 0 || taskMetrics.EffectiveStart.Before(metrics.Start) {
			metrics.Start = taskMetrics.EffectiveStart
		}
		if len(metrics.Tasks) == 0 || taskMetrics.ActualEnd.After(metrics.End) {
			metrics.End = taskMetrics.ActualEnd
		}
		metrics.Tasks = append(metrics.Tasks, taskMetrics)
	}
	if len(metrics.Tasks) == 0 {
		return ProjectMetrics{}, false, nil
	}

	metrics.TaskCount = len(metrics.Tasks)
	metrics.SpanDays = max(1, DaysBetween(metrics.Start, metrics.End)+1)
	return metrics, true, nil
}

// Bar is anything drawn on the timeline.
type Bar struct {
	Start    time.Time
	SpanDays int
}

func (m TaskMetrics) Bar() Bar {
	return Bar{Start: m.EffectiveStart, SpanDays: m.SpanDays}
}

func (m ProjectMetrics) Bar() Bar {
	return Bar{Start: m.Start, SpanDays: m.SpanDays}
}

const (
	windowLeadDays = 3
	windowMinDays  = 14
	windowPadDays  = 3
)

// Window is the range of days shown by a Gantt chart.
type Window struct {
	Start  time.Time `json:"start"`
	Length int       `json:"length"`
}

type Column struct {
	Date    time.Time `json:"date"`
	Weekend bool      `json:"weekend"`
	Today   bool      `json:"today"`
}

// NewWindow opens three days before today, or at the earliest bar if that
// is earlier, and runs at least two weeks past the latest bar end.
func NewWindow(bars []Bar, today time.Time) Window {
	window := Window{Start: Day(today).AddDate(0, 0, -windowLeadDays), Length: windowMinDays}
	if len(bars) == 0 {
		return window
	}

	for _, bar := range bars {
		if start := Day(bar.Start); start.Before(window.Start) {
			window.Start = start
		}
	}
	latest := 0
	for _, bar := range bars {
		if end := window.Offset(bar.Start) + bar.SpanDays; end > latest {
			latest = end
		}
	}
	window.Length = max(windowMinDays, latest+windowPadDays)
	return window
}

// Offset is the column index of day, negative when before the window.
func (w Window) Offset(day time.Time) int {
	return DaysBetween(w.Start, day)
}

func (w Window) Days() []time.Time {
	days := make([]time.Time, 0, w.Length)
	for i := 0; i < w.Length; i++ {
		days = append(days, w.Start.AddDate(0, 0, i))
	}
	return days
}

func (w Window) Columns(today time.Time) []Column {
	days := w.Days()
	columns := make([]Column, 0, len(days))
	for _, day := range days {
		columns = append(columns, Column{
			Date:    day,
			Weekend: WorkingHours(day) == 0,
			Today:   DaysBetween(day, today) == 0,
		})
	}
	return columns
}
