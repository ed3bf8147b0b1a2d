package schedule

import (
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

const (
	miniLeadDays = 2
	miniDays     = 7
)

type MiniRow struct {
	TaskID       string    `json:"taskId"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	Start        time.Time `json:"start"`
	SpanDays     int       `json:"spanDays"`
	LeftPercent  float64   `json:"leftPercent"`
	WidthPercent float64   `json:"widthPercent"`
}

// Mini is the week around a planned start, showing what else the assignee
// has booked.
type Mini struct {
	Start time.Time `json:"start"`
	Days  int       `json:"days"`
	Rows  []MiniRow `json:"rows"`
}

func (m Mini) Window() Window {
	return Window{Start: m.Start, Length: m.Days}
}

// MiniSchedule lays out the assignee's tasks, other than excludeTaskID, as
// planned budget bars from their creation day, clipped to a seven day window
// that opens two days before plannedStart.
func MiniSchedule(tasks []model.Task, assigneeID, excludeTaskID string, plannedStart time.Time) Mini {
	mini := Mini{Start: Day(plannedStart).AddDate(0, 0, -miniLeadDays), Days: miniDays}
	if assigneeID == "" {
		return mini
	}

	for _, task := range tasks {
		if !task.AssignedTo(assigneeID) || task.ID == excludeTaskID {
			continue
		}
		budget, _ := task.Budget()
		if model.ValidateBudget(task.EffortHours) != nil {
			budget = 0
		}

		start := Day(task.CreatedAt.In(plannedStart.Location()))
		span := DaysBetween(start, ProjectEnd(start, budget)) + 1
		offset := DaysBetween(mini.Start, start)
		if offset+span < 0 || offset > miniDays {
			continue
		}

		from := max(0, offset)
		to := min(miniDays, offset+span)
		if to <= from {
			continue
		}
		mini.Rows = append(mini.Rows, MiniRow{
			TaskID:       task.ID,
			Title:        task.Title,
			Status:       task.Status.Label(),
			Start:        start,
			SpanDays:     span,
			LeftPercent:  float64(from) / miniDays * 100,
			WidthPercent: float64(to-from) / miniDays * 100,
		})
	}
	return mini
}
