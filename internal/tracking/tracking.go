// Package tracking implements the work-session lifecycle of a task. All
// transitions are pure: they take a task snapshot and the current time and
// return the timing fields to persist.
package tracking

import (
	"errors"
	"fmt"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

// ErrInvalidTransition is returned when a transition's precondition does not
// hold. The task is left unchanged.
var ErrInvalidTransition = errors.New("invalid transition")

// State is the session lifecycle position derived from a task's fields.
type State int

const (
	NotStarted State = iota
	Running
	Paused
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "not started"
	}
}

// StateOf derives the timing state. An open session always means Running.
func StateOf(task model.Task) State {
	if task.HasOpenSession() {
		return Running
	}
	switch task.Status {
	case model.StatusCompleted:
		return Completed
	case model.StatusPaused:
		return Paused
	case model.StatusCancelled:
		return Cancelled
	default:
		return NotStarted
	}
}

// Timing is the complete set of fields a transition writes.
type Timing struct {
	Status                  model.Status
	StartedAt               *time.Time
	CurrentSessionStartedAt *time.Time
	PausedAt                *time.Time
	CompletedAt             *time.Time
	ActualEffortMinutes     int64
}

// TimingOf copies the timing fields out of task.
func TimingOf(task model.Task) Timing {
	return Timing{
		Status:                  task.Status,
		StartedAt:               task.StartedAt,
		CurrentSessionStartedAt: task.CurrentSessionStartedAt,
		PausedAt:                task.PausedAt,
		CompletedAt:             task.CompletedAt,
		ActualEffortMinutes:     task.ActualEffortMinutes,
	}
}

// Apply returns task with every timing field replaced by t.
func (t Timing) Apply(task model.Task) model.Task {
	task.Status = t.Status
	task.StartedAt = t.StartedAt
	task.CurrentSessionStartedAt = t.CurrentSessionStartedAt
	task.PausedAt = t.PausedAt
	task.CompletedAt = t.CompletedAt
	task.ActualEffortMinutes = t.ActualEffortMinutes
	return task
}

// Op is one of Start, Pause or Stop.
type Op func(task model.Task, now time.Time) (Timing, error)

// Start opens a session, or resumes a paused task. It fails on a running or
// completed task. startedAt is set only the first time.
func Start(task model.Task, now time.Time) (Timing, error) {
	switch StateOf(task) {
	case Completed:
		return Timing{}, fmt.Errorf("%w: task %s is already completed", ErrInvalidTransition, task.ID)
	case Running:
		return Timing{}, fmt.Errorf("%w: task %s already has an open session", ErrInvalidTransition, task.ID)
	}

	next := TimingOf(task)
	next.Status = model.StatusInDevelopment
	next.CurrentSessionStartedAt = timePtr(now)
	if next.StartedAt == nil {
		next.StartedAt = timePtr(now)
	}
	return next, nil
}

// Pause closes the open session, adding its whole minutes to the total.
func Pause(task model.Task, now time.Time) (Timing, error) {
	if !task.HasOpenSession() {
		return Timing{}, fmt.Errorf("%w: task %s has no open session", ErrInvalidTransition, task.ID)
	}

	next := closeSession(TimingOf(task), now)
	next.Status = model.StatusPaused
	next.PausedAt = timePtr(now)
	return next, nil
}

// Stop completes the task, closing the open session if there is one.
func Stop(task model.Task, now time.Time) (Timing, error) {
	if StateOf(task) == Completed {
		return Timing{}, fmt.Errorf("%w: task %s is already completed", ErrInvalidTransition, task.ID)
	}

	next := closeSession(TimingOf(task), now)
	next.Status = model.StatusCompleted
	next.CompletedAt = timePtr(now)
	return next, nil
}

// closeSession folds the open session, if any, into the accumulator.
func closeSession(timing Timing, now time.Time) Timing {
	if timing.CurrentSessionStartedAt == nil {
		return timing
	}
	timing.ActualEffortMinutes += wholeMinutes(now.Sub(*timing.CurrentSessionStartedAt))
	timing.CurrentSessionStartedAt = nil
	return timing
}

func wholeMinutes(elapsed time.Duration) int64 {
	if elapsed <= 0 {
		return 0
	}
	return int64(elapsed / time.Minute)
}

func timePtr(value time.Time) *time.Time {
	return &value
}

// Action names a transition as it appears in routes, key bindings and
// history.
type Action string

const (
	ActionStart Action = "start"
	ActionPause Action = "pause"
	ActionStop  Action = "stop"
)

func ParseAction(value string) (Action, error) {
	switch action := Action(value); action {
	case ActionStart, ActionPause, ActionStop:
		return action, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, value)
	}
}

func (a Action) Op() Op {
	switch a {
	case ActionStart:
		return Start
	case ActionPause:
		return Pause
	default:
		return Stop
	}
}

// Event is the history event type recorded for the action.
func (a Action) Event() string {
	switch a {
	case ActionStart:
		return "started"
	case ActionPause:
		return "paused"
	default:
		return "stopped"
	}
}
