package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/tracking"
)

type lane struct {
	view     string
	title    string
	color    gocui.Attribute
	statuses []model.Status
}

var lanes = []lane{
	{view: viewTodo, title: "1 Not started", color: gocui.ColorWhite, statuses: []model.Status{model.StatusNotStarted}},
	{view: viewActive, title: "2 In progress", color: gocui.ColorBlue, statuses: []model.Status{model.StatusInDevelopment, model.StatusInDev}},
	{view: viewPaused, title: "3 Paused", color: gocui.ColorYellow, statuses: []model.Status{model.StatusPaused}},
	{view: viewReview, title: "4 Review", color: gocui.ColorMagenta, statuses: []model.Status{model.StatusCompleted, model.StatusInTest}},
	{view: viewDone, title: "5 Done", color: gocui.ColorGreen, statuses: []model.Status{model.StatusInProd, model.StatusCancelled}},
}

func laneOf(status model.Status) int {
	for i, l := range lanes {
		for _, s := range l.statuses {
			if s == status {
				return i
			}
		}
	}
	return 0
}

func laneIndex(viewName string) (int, bool) {
	for i, l := range lanes {
		if l.view == viewName {
			return i, true
		}
	}
	return 0, false
}

func groupByLane(tasks []model.Task) [][]model.Task {
	grouped := make([][]model.Task, len(lanes))
	for i := range grouped {
		grouped[i] = []model.Task{}
	}
	for _, task := range tasks {
		i := laneOf(task.Status)
		grouped[i] = append(grouped[i], task)
	}
	return grouped
}

func formatTaskSummary(task model.Task, now time.Time) string {
	parts := []string{task.Title}
	if task.HasOpenSession() {
		parts[0] = "● " + task.Title
	}
	effort := tracking.Measure(task, now)
	if effort.TotalMinutes() > 0 || effort.Running {
		parts = append(parts, effort.String())
	}
	if pct, ok := tracking.BudgetPercent(task, now); ok {
		parts = append(parts, fmt.Sprintf("%.0f%%", pct))
	}
	return strings.Join(parts, " | ")
}

func formatBudget(task model.Task, now time.Time) string {
	budget, ok := task.Budget()
	if !ok {
		return "none"
	}
	pct, ok := tracking.BudgetPercent(task, now)
	if !ok {
		return fmt.Sprintf("%sh", humanize.Ftoa(budget))
	}
	return fmt.Sprintf("%sh (%.0f%% used, %s)", humanize.Ftoa(budget), pct, tracking.SeverityOf(pct))
}

func formatHistoryLine(entry model.HistoryEntry, now time.Time) string {
	return fmt.Sprintf("%s | %s | %s", humanize.RelTime(entry.CreatedAt, now, "ago", "from now"), entry.EventType, entry.Details)
}

// severityCode is the ANSI foreground color for a task's budget use, 0 when
// it is within budget.
func severityCode(task model.Task, now time.Time) int {
	pct, ok := tracking.BudgetPercent(task, now)
	if !ok {
		return 0
	}
	switch tracking.SeverityOf(pct) {
	case tracking.SeverityExceeded:
		return 31
	case tracking.SeverityWarning:
		return 33
	default:
		return 0
	}
}

func colorize(code int, text string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, text)
}
