package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Optional distinguishes an absent JSON field from an explicit null and
// from a value.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: value}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	var zero T
	o.Value = zero
	if string(data) == "null" {
		o.Valid = false
		return nil
	}

	// Every timestamp entering the system is parsed here.
	if target, ok := any(&o.Value).(*time.Time); ok {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("timestamp must be a string: %w", err)
		}
		parsed, err := ParseTimestamp(raw)
		if err != nil {
			return err
		}
		*target = parsed
		o.Valid = true
		return nil
	}

	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns nil for null, a copy of the value otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	value := o.Value
	return &value
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts ISO-8601 timestamps and plain dates. Values without
// a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

type TaskPatch struct {
	ProjectID               Optional[string]    `json:"projectId"`
	Title                   Optional[string]    `json:"title"`
	Description             Optional[string]    `json:"description"`
	Status                  Optional[string]    `json:"status"`
	EffortHours             Optional[float64]   `json:"effortHours"`
	AssignedToUserID        Optional[string]    `json:"assignedToUserId"`
	UpdatedByUserID         Optional[string]    `json:"updatedByUserId"`
	CreatedAt               Optional[time.Time] `json:"createdAt"`
	StartedAt               Optional[time.Time] `json:"startedAt"`
	CurrentSessionStartedAt Optional[time.Time] `json:"currentSessionStartedAt"`
	PausedAt                Optional[time.Time] `json:"pausedAt"`
	CompletedAt             Optional[time.Time] `json:"completedAt"`
	ActualEffortMinutes     Optional[int64]     `json:"actualEffortMinutes"`
}

// Apply returns task with the patch applied. It is an explicit edit, so it
// may reset actualEffortMinutes.
func (p TaskPatch) Apply(task Task, now time.Time) (Task, error) {
	if p.ProjectID.Set {
		projectID := strings.TrimSpace(p.ProjectID.Value)
		if !p.ProjectID.Valid || projectID == "" {
			return Task{}, &ValidationError{Field: "projectId", Message: "project is required"}
		}
		task.ProjectID = projectID
	}
	if p.Title.Set {
		title, err := validateTitle(p.Title.Value)
		if err != nil {
			return Task{}, err
		}
		task.Title = title
	}
	if p.Description.Set {
		task.Description = strings.TrimSpace(p.Description.Value)
	}
	if p.Status.Set {
		status, err := ParseStatus(p.Status.Value)
		if err != nil {
			return Task{}, err
		}
		task.Status = status
	}
	if p.EffortHours.Set {
		budget := p.EffortHours.Ptr()
		if err := ValidateBudget(budget); err != nil {
			return Task{}, err
		}
		task.EffortHours = budget
	}
	if p.AssignedToUserID.Set {
		task.AssignedToUserID = blankToNil(p.AssignedToUserID.Ptr())
	}
	if p.UpdatedByUserID.Set {
		task.UpdatedByUserID = blankToNil(p.UpdatedByUserID.Ptr())
	}
	if p.CreatedAt.Set {
		if !p.CreatedAt.Valid {
			return Task{}, &ValidationError{Field: "createdAt", Message: "must not be null"}
		}
		task.CreatedAt = p.CreatedAt.Value
	}
	if p.StartedAt.Set {
		if !p.StartedAt.Valid && task.StartedAt != nil {
			return Task{}, &ValidationError{Field: "startedAt", Message: "cannot be cleared once set"}
		}
		task.StartedAt = p.StartedAt.Ptr()
	}
	if p.CurrentSessionStartedAt.Set {
		// Only Start opens a session; an edit may close one.
		if p.CurrentSessionStartedAt.Valid {
			return Task{}, &ValidationError{Field: "currentSessionStartedAt", Message: "sessions are opened by start"}
		}
		task.CurrentSessionStartedAt = nil
	}
	if p.PausedAt.Set {
		task.PausedAt = p.PausedAt.Ptr()
	}
	if p.CompletedAt.Set {
		task.CompletedAt = p.CompletedAt.Ptr()
	}
	if p.ActualEffortMinutes.Set {
		minutes := p.ActualEffortMinutes.Value
		if err := validateMinutes(minutes); err != nil {
			return Task{}, err
		}
		task.ActualEffortMinutes = minutes
	}

	if err := checkSession(task); err != nil {
		return Task{}, err
	}
	task.UpdatedAt = now
	return task, nil
}

type ProjectPatch struct {
	Name            Optional[string] `json:"name"`
	Description     Optional[string] `json:"description"`
	UpdatedByUserID Optional[string] `json:"updatedByUserId"`
}

func (p ProjectPatch) Apply(project Project, now time.Time) (Project, error) {
	if p.Name.Set {
		name, err := validateProjectName(p.Name.Value)
		if err != nil {
			return Project{}, err
		}
		project.Name = name
	}
	if p.Description.Set {
		project.Description = strings.TrimSpace(p.Description.Value)
	}
	if p.UpdatedByUserID.Set {
		project.UpdatedByUserID = blankToNil(p.UpdatedByUserID.Ptr())
	}
	project.UpdatedAt = now
	return project, nil
}

type UserPatch struct {
	FirstName       Optional[string] `json:"firstName"`
	LastName        Optional[string] `json:"lastName"`
	Email           Optional[string] `json:"email"`
	Role            Optional[string] `json:"role"`
	Password        Optional[string] `json:"password"`
	UpdatedByUserID Optional[string] `json:"updatedByUserId"`
}

// Apply updates profile fields. Password changes are hashed by the caller.
func (p UserPatch) Apply(user User, now time.Time) (User, error) {
	if p.FirstName.Set {
		user.FirstName = strings.TrimSpace(p.FirstName.Value)
	}
	if p.LastName.Set {
		user.LastName = strings.TrimSpace(p.LastName.Value)
	}
	if p.Email.Set {
		email, err := validateEmail(p.Email.Value)
		if err != nil {
			return User{}, err
		}
		user.Email = email
	}
	if p.Role.Set {
		role, err := ParseRole(p.Role.Value)
		if err != nil {
			return User{}, err
		}
		user.Role = role
	}
	if p.UpdatedByUserID.Set {
		user.UpdatedByUserID = blankToNil(p.UpdatedByUserID.Ptr())
	}
	user.UpdatedAt = now
	return user, nil
}

// NewPassword returns the plain password to hash, if the patch carries one.
func (p UserPatch) NewPassword() (string, bool) {
	if !p.Password.Valid {
		return "", false
	}
	password := strings.TrimSpace(p.Password.Value)
	return password, password != ""
}
