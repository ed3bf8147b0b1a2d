package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidBudget is matched by every rejection of a negative or
// non-finite effort budget.
var ErrInvalidBudget = errors.New("effort hours must be a non-negative number")

// MaxEffortHours bounds budgets and accumulated effort so projected dates
// stay within a few decades.
const MaxEffortHours = 100_000

type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func ValidateBudget(hours *float64) error {
	if hours == nil {
		return nil
	}
	if *hours < 0 || math.IsNaN(*hours) || math.IsInf(*hours, 0) {
		return &ValidationError{Field: "effortHours", Message: ErrInvalidBudget.Error(), Err: ErrInvalidBudget}
	}
	if *hours > MaxEffortHours {
		return &ValidationError{
			Field:   "effortHours",
			Message: fmt.Sprintf("must be at most %d", MaxEffortHours),
			Err:     ErrInvalidBudget,
		}
	}
	return nil
}

func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", &ValidationError{Field: "title", Message: "task title must not be empty"}
	}
	return trimmed, nil
}

func validateProjectName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ValidationError{Field: "name", Message: "project name must not be empty"}
	}
	return trimmed, nil
}

func validateEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(trimmed, "@") {
		return "", &ValidationError{Field: "email", Message: "email is not valid"}
	}
	return trimmed, nil
}

func validateMinutes(minutes int64) error {
	if minutes < 0 {
		return &ValidationError{Field: "actualEffortMinutes", Message: "must not be negative"}
	}
	if minutes > MaxEffortHours*60 {
		return &ValidationError{Field: "actualEffortMinutes", Message: fmt.Sprintf("must be at most %d", MaxEffortHours*60)}
	}
	return nil
}

func checkSession(task Task) error {
	if task.CurrentSessionStartedAt != nil && task.Status != StatusInDevelopment {
		return &ValidationError{
			Field:   "currentSessionStartedAt",
			Message: fmt.Sprintf("an open session requires status %s", StatusInDevelopment),
		}
	}
	if task.CurrentSessionStartedAt != nil && task.StartedAt == nil {
		return &ValidationError{Field: "startedAt", Message: "an open session requires startedAt"}
	}
	return nil
}

type TaskInput struct {
	ProjectID        string     `json:"projectId"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	EffortHours      *float64   `json:"effortHours"`
	AssignedToUserID *string    `json:"assignedToUserId"`
	UpdatedByUserID  *string    `json:"updatedByUserId"`
	CreatedAt        *time.Time `json:"createdAt"`
}

// NewTask builds a task ready to be inserted. Timing fields start empty.
func NewTask(input TaskInput, now time.Time) (Task, error) {
	projectID := strings.TrimSpace(input.ProjectID)
	if projectID == "" {
		return Task{}, &ValidationError{Field: "projectId", Message: "project is required"}
	}
	title, err := validateTitle(input.Title)
	if err != nil {
		return Task{}, err
	}
	if err := ValidateBudget(input.EffortHours); err != nil {
		return Task{}, err
	}
	status, err := ParseStatus(input.Status)
	if err != nil {
		return Task{}, err
	}
	if status == StatusInDevelopment {
		// Running requires an open session, which only Start creates.
		status = StatusNotStarted
	}

	createdAt := now
	if input.CreatedAt != nil {
		createdAt = *input.CreatedAt
	}

	return Task{
		ID:               uuid.NewString(),
		ProjectID:        projectID,
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		Status:           status,
		EffortHours:      input.EffortHours,
		AssignedToUserID: blankToNil(input.AssignedToUserID),
		UpdatedByUserID:  blankToNil(input.UpdatedByUserID),
		CreatedAt:        createdAt,
		UpdatedAt:        now,
	}, nil
}

type ProjectInput struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	UpdatedByUserID *string `json:"updatedByUserId"`
}

func NewProject(input ProjectInput, now time.Time) (Project, error) {
	name, err := validateProjectName(input.Name)
	if err != nil {
		return Project{}, err
	}
	return Project{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		CreatedAt:       now,
		UpdatedAt:       now,
		UpdatedByUserID: blankToNil(input.UpdatedByUserID),
	}, nil
}

type UserInput struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	Password        string  `json:"password"`
	UpdatedByUserID *string `json:"updatedByUserId"`
}

// NewUser validates the input. The caller sets PasswordHash; Password is
// never copied onto the user.
func NewUser(input UserInput, now time.Time) (User, error) {
	email, err := validateEmail(input.Email)
	if err != nil {
		return User{}, err
	}
	role, err := ParseRole(input.Role)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:              uuid.NewString(),
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Email:           email,
		Role:            role,
		CreatedAt:       now,
		UpdatedAt:       now,
		UpdatedByUserID: blankToNil(input.UpdatedByUserID),
	}, nil
}

func blankToNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
