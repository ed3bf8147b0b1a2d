// Package gcal publishes task schedules to Google Calendar.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/schedule"
)

const (
	TaskIDProperty = "lazyplan_task_id"
	KindProperty   = "lazyplan_kind"
)

type Kind string

const (
	KindPlan     Kind = "plan"
	KindOvertime Kind = "overtime"
)

var kinds = []Kind{KindPlan, KindOvertime}

// Events is the calendar surface the exporter needs.
type Events interface {
	Find(ctx context.Context, taskID string, kind Kind) (*calendar.Event, error)
	Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	Patch(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error)
	Delete(ctx context.Context, eventID string) error
}

// TaskEvents returns the all-day events for one task keyed by kind. The
// overtime event is absent when the task is within budget.
func TaskEvents(task model.Task, metrics schedule.TaskMetrics) map[Kind]*calendar.Event {
	events := map[Kind]*calendar.Event{
		KindPlan: newEvent(task, KindPlan, metrics.EffectiveStart, metrics.PlannedEnd),
	}
	if metrics.HasOvertime {
		events[KindOvertime] = newEvent(task, KindOvertime, metrics.PlannedEnd.AddDate(0, 0, 1), metrics.ActualEnd)
	}
	return events
}

// newEvent spans first through last inclusive; all-day end dates are
// exclusive.
func newEvent(task model.Task, kind Kind, first, last time.Time) *calendar.Event {
	description := fmt.Sprintf("Status: %s", task.Status.Label())
	if budget, ok := task.Budget(); ok {
		description += fmt.Sprintf("\nBudget: %gh", budget)
	}
	if task.Description != "" {
		description += "\n\n" + task.Description
	}
	event := &calendar.Event{
		Summary:      fmt.Sprintf("[%s] %s", kind, task.Title),
		Description:  description,
		Start:        &calendar.EventDateTime{Date: first.Format(time.DateOnly)},
		End:          &calendar.EventDateTime{Date: last.AddDate(0, 0, 1).Format(time.DateOnly)},
		Transparency: "transparent",
	}
	event.ExtendedProperties = &calendar.EventExtendedProperties{
		Private: map[string]string{
			TaskIDProperty: task.ID,
			KindProperty:   string(kind),
		},
	}
	return event
}

type Result struct {
	Created int
	Updated int
	Removed int
	Skipped int
}

func (r Result) String() string {
	return fmt.Sprintf("%d created, %d updated, %d removed, %d skipped", r.Created, r.Updated, r.Removed, r.Skipped)
}

type Exporter struct {
	events Events
	logger *log.Logger
}

func NewExporter(events Events, logger *log.Logger) *Exporter {
	return &Exporter{events: events, logger: logger}
}

// Export brings the calendar in line with the tasks' current schedule.
// Existing events are patched, and an overtime event that no longer applies
// is removed. Tasks with an invalid budget are skipped.
func (e *Exporter) Export(ctx context.Context, tasks []model.Task, now time.Time) (Result, error) {
	var result Result
	for _, task := range tasks {
		metrics, err := schedule.ComputeTask(task, now)
		if err != nil {
			e.logger.Warn("skipping task", "task", task.ID, "err", err)
			result.Skipped++
			continue
		}

		wanted := TaskEvents(task, metrics)
		for _, kind := range kinds {
			existing, err := e.events.Find(ctx, task.ID, kind)
			if err != nil {
				return result, fmt.Errorf("find %s event for task %s: %w", kind, task.ID, err)
			}
			event, ok := wanted[kind]
			switch {
			case !ok && existing == nil:
			case !ok:
				if err := e.events.Delete(ctx, existing.Id); err != nil {
					return result, fmt.Errorf("delete %s event for task %s: %w", kind, task.ID, err)
				}
				result.Removed++
			case existing != nil:
				if _, err := e.events.Patch(ctx, existing.Id, event); err != nil {
					return result, fmt.Errorf("patch %s event for task %s: %w", kind, task.ID, err)
				}
				result.Updated++
			default:
				if _, err := e.events.Insert(ctx, event); err != nil {
					return result, fmt.Errorf("insert %s event for task %s: %w", kind, task.ID, err)
				}
				result.Created++
			}
		}
		e.logger.Debug("task exported", "task", task.ID, "planned_end", metrics.PlannedEnd.Format(time.DateOnly), "overtime", metrics.HasOvertime)
	}
	return result, nil
}

// GoogleEvents implements Events on one calendar of the Calendar API.
type GoogleEvents struct {
	srv        *calendar.Service
	calendarID string
}

// NewGoogleEvents resolves name, a calendar id or display name.
func NewGoogleEvents(ctx context.Context, srv *calendar.Service, name string) (*GoogleEvents, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "primary" || strings.Contains(name, "@") {
		if name == "" {
			name = "primary"
		}
		return &GoogleEvents{srv: srv, calendarID: name}, nil
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == name {
			return &GoogleEvents{srv: srv, calendarID: item.Id}, nil
		}
	}
	return nil, errors.New("calendar " + name + " not found")
}

func (g *GoogleEvents) Find(ctx context.Context, taskID string, kind Kind) (*calendar.Event, error) {
	events, err := g.srv.Events.List(g.calendarID).
		PrivateExtendedProperty(TaskIDProperty+"="+taskID, KindProperty+"="+string(kind)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) == 0 {
		return nil, nil
	}
	return events.Items[0], nil
}

func (g *GoogleEvents) Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	return g.srv.Events.Insert(g.calendarID, event).Context(ctx).Do()
}

func (g *GoogleEvents) Patch(ctx context.Context, eventID string, event *calendar.Event) (*calendar.Event, error) {
	return g.srv.Events.Patch(g.calendarID, eventID, event).Context(ctx).Do()
}

func (g *GoogleEvents) Delete(ctx context.Context, eventID string) error {
	return g.srv.Events.Delete(g.calendarID, eventID).Context(ctx).Do()
}
