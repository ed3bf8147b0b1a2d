package tracking

import (
	"fmt"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityExceeded
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityExceeded:
		return "exceeded"
	default:
		return "normal"
	}
}

// Effort is the worked time of a task at a given instant.
type Effort struct {
	ClosedMinutes int64
	OpenMinutes   int64
	OpenSeconds   int64
	Running       bool
}

func (e Effort) TotalMinutes() int64 {
	return e.ClosedMinutes + e.OpenMinutes
}

func (e Effort) Hours() float64 {
	return float64(e.TotalMinutes()) / 60
}

func Measure(task model.Task, now time.Time) Effort {
	effort := Effort{ClosedMinutes: task.ActualEffortMinutes}
	if task.CurrentSessionStartedAt == nil {
		return effort
	}

	elapsed := now.Sub(*task.CurrentSessionStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	effort.Running = true
	effort.OpenMinutes = int64(elapsed / time.Minute)
	effort.OpenSeconds = int64((elapsed % time.Minute) / time.Second)
	return effort
}

func FormatEffort(task model.Task, now time.Time) string {
	return Measure(task, now).String()
}

func (e Effort) String() string {
	total := e.TotalMinutes()
	if total == 0 && !e.Running {
		return "Not started"
	}

	hours := total / 60
	minutes := total % 60

	if e.Running {
		if total == 0 {
			return fmt.Sprintf("%ds", e.OpenSeconds)
		}
		if hours == 0 {
			return fmt.Sprintf("%dm %ds", minutes, e.OpenSeconds)
		}
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, e.OpenSeconds)
	}

	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// BudgetPercent reports consumed effort as a share of the budget. It is
// false when the task has no (or a zero) budget.
func BudgetPercent(task model.Task, now time.Time) (float64, bool) {
	budget, ok := task.Budget()
	if !ok || budget <= 0 {
		return 0, false
	}
	total := Measure(task, now).TotalMinutes()
	return float64(total) / (budget * 60) * 100, true
}

func SeverityOf(percent float64) Severity {
	switch {
	case percent >= 100:
		return SeverityExceeded
	case percent >= 80:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}
