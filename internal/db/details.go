package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/tracking"
)

func formatCreatedDetails(task model.Task) string {
	return fmt.Sprintf("created: title='%s' status=%s budget=%s assignee=%s", task.Title, task.Status, formatBudget(task.EffortHours), formatRef(task.AssignedToUserID))
}

func formatDeletedDetails(task model.Task) string {
	return fmt.Sprintf("deleted: title='%s' status=%s budget=%s effort=%dm", task.Title, task.Status, formatBudget(task.EffortHours), task.ActualEffortMinutes)
}

func formatTransitionDetails(action tracking.Action, before, after model.Task) string {
	details := fmt.Sprintf("%s: status '%s' -> '%s'", action.Event(), before.Status, after.Status)
	if logged := after.ActualEffortMinutes - before.ActualEffortMinutes; before.HasOpenSession() && !after.HasOpenSession() {
		details += fmt.Sprintf("; session +%dm", logged)
	}
	return details + "; effort " + tracking.Effort{ClosedMinutes: after.ActualEffortMinutes}.String()
}

func formatTaskDiff(before, after model.Task) string {
	changes := []string{}
	if before.ProjectID != after.ProjectID {
		changes = append(changes, formatChange("project", before.ProjectID, after.ProjectID))
	}
	if before.Title != after.Title {
		changes = append(changes, formatChange("title", before.Title, after.Title))
	}
	if before.Description != after.Description {
		changes = append(changes, formatChange("description", before.Description, after.Description))
	}
	if before.Status != after.Status {
		changes = append(changes, formatChange("status", string(before.Status), string(after.Status)))
	}
	if formatBudget(before.EffortHours) != formatBudget(after.EffortHours) {
		changes = append(changes, formatChange("budget", formatBudget(before.EffortHours), formatBudget(after.EffortHours)))
	}
	if formatRef(before.AssignedToUserID) != formatRef(after.AssignedToUserID) {
		changes = append(changes, formatChange("assignee", formatRef(before.AssignedToUserID), formatRef(after.AssignedToUserID)))
	}
	if !before.CreatedAt.Equal(after.CreatedAt) {
		changes = append(changes, formatChange("created", formatTime(&before.CreatedAt), formatTime(&after.CreatedAt)))
	}
	timestamps := []struct {
		field         string
		before, after *time.Time
	}{
		{"started", before.StartedAt, after.StartedAt},
		{"session", before.CurrentSessionStartedAt, after.CurrentSessionStartedAt},
		{"paused", before.PausedAt, after.PausedAt},
		{"completed", before.CompletedAt, after.CompletedAt},
	}
	for _, ts := range timestamps {
		if formatTime(ts.before) != formatTime(ts.after) {
			changes = append(changes, formatChange(ts.field, formatTime(ts.before), formatTime(ts.after)))
		}
	}
	if before.ActualEffortMinutes != after.ActualEffortMinutes {
		changes = append(changes, formatChange("effort", fmt.Sprintf("%dm", before.ActualEffortMinutes), fmt.Sprintf("%dm", after.ActualEffortMinutes)))
	}

	if len(changes) == 0 {
		return "updated: no changes"
	}

	return "updated: " + strings.Join(changes, "; ")
}

func formatChange(field, before, after string) string {
	return fmt.Sprintf("%s: '%s' -> '%s'", field, valueOrNone(before), valueOrNone(after))
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatBudget(hours *float64) string {
	if hours == nil {
		return "none"
	}
	return strconv.FormatFloat(*hours, 'f', -1, 64) + "h"
}

func formatRef(id *string) string {
	if id == nil {
		return "none"
	}
	return *id
}

func formatTime(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.UTC().Format(time.RFC3339)
}
