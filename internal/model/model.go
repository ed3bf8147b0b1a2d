package model

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusNotStarted    Status = "NOT_STARTED"
	StatusInDevelopment Status = "IN_DEVELOPMENT"
	StatusPaused        Status = "PAUSED"
	StatusCancelled     Status = "CANCELLED"
	StatusCompleted     Status = "COMPLETED"
	StatusInTest        Status = "IN_TEST"
	StatusInProd        Status = "IN_PROD"
	StatusInDev         Status = "IN_DEV"
)

// Board column order.
var statusOrder = []Status{
	StatusNotStarted,
	StatusInDevelopment,
	StatusInTest,
	StatusInProd,
	StatusInDev,
	StatusPaused,
	StatusCompleted,
	StatusCancelled,
}

var statusLabels = map[Status]string{
	StatusNotStarted:    "Not started",
	StatusInDevelopment: "In development",
	StatusPaused:        "Paused",
	StatusCancelled:     "Cancelled",
	StatusCompleted:     "Completed",
	StatusInTest:        "In test",
	StatusInProd:        "In prod",
	StatusInDev:         "In dev",
}

// Values written by earlier versions of the board.
var legacyStatuses = map[string]Status{
	"DA_FARE":     StatusNotStarted,
	"IN_SVILUPPO": StatusInDevelopment,
	"IN_PAUSA":    StatusPaused,
	"ANNULLATO":   StatusCancelled,
	"COMPLETATO":  StatusCompleted,
}

func Statuses() []Status {
	return append([]Status(nil), statusOrder...)
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// NormalizeStatus maps legacy and lower-case spellings onto the canonical
// values. Unknown values are upper-cased and returned as-is.
func NormalizeStatus(value string) Status {
	key := strings.ToUpper(strings.TrimSpace(value))
	if key == "" {
		return StatusNotStarted
	}
	if status, ok := legacyStatuses[key]; ok {
		return status
	}
	return Status(key)
}

func ParseStatus(value string) (Status, error) {
	status := NormalizeStatus(value)
	if !status.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", value)}
	}
	return status, nil
}

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if role == "" {
		return RoleUser, nil
	}
	if role.Rank() == 0 {
		return "", &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", value)}
	}
	return role, nil
}

type Task struct {
	ID                      string     `json:"id"`
	ProjectID               string     `json:"projectId"`
	Title                   string     `json:"title"`
	Description             string     `json:"description"`
	Status                  Status     `json:"status"`
	EffortHours             *float64   `json:"effortHours"`
	AssignedToUserID        *string    `json:"assignedToUserId"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
	UpdatedByUserID         *string    `json:"updatedByUserId"`
	StartedAt               *time.Time `json:"startedAt"`
	CurrentSessionStartedAt *time.Time `json:"currentSessionStartedAt"`
	PausedAt                *time.Time `json:"pausedAt"`
	CompletedAt             *time.Time `json:"completedAt"`
	ActualEffortMinutes     int64      `json:"actualEffortMinutes"`

	// Version is the storage update token.
	Version int64 `json:"-"`
}

// Budget returns the planned effort in hours, false when none is set.
func (t Task) Budget() (float64, bool) {
	if t.EffortHours == nil {
		return 0, false
	}
	return *t.EffortHours, true
}

func (t Task) HasOpenSession() bool {
	return t.CurrentSessionStartedAt != nil
}

func (t Task) AssignedTo(userID string) bool {
	return t.AssignedToUserID != nil && *t.AssignedToUserID == userID
}

type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	UpdatedByUserID *string   `json:"updatedByUserId"`
}

type User struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	UpdatedByUserID *string   `json:"updatedByUserId"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"taskId"`
	EventType string    `json:"eventType"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

type Filter struct {
	Query      string `json:"query"`
	ProjectID  string `json:"projectId"`
	AssigneeID string `json:"assigneeId"`
	Status     Status `json:"status"`
}
