package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldDescription
	fieldProject
	fieldStatus
	fieldBudget
	fieldAssignee
)

// formOptions are the values the cycling fields step through.
type formOptions struct {
	projects []model.Project
	users    []model.User
}

func buildFormFields(task *model.Task, opts formOptions) []formField {
	fields := []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Project (space/←→)"},
		{Label: "Status (space/←→)"},
		{Label: "Budget hours"},
		{Label: "Assignee (space/←→)"},
	}

	if task == nil {
		if len(opts.projects) > 0 {
			fields[fieldProject].Value = opts.projects[0].Name
		}
		fields[fieldStatus].Value = string(model.StatusNotStarted)
		return fields
	}

	fields[fieldTitle].Value = task.Title
	fields[fieldDescription].Value = task.Description
	fields[fieldStatus].Value = string(task.Status)
	for _, project := range opts.projects {
		if project.ID == task.ProjectID {
			fields[fieldProject].Value = project.Name
		}
	}
	if budget, ok := task.Budget(); ok {
		fields[fieldBudget].Value = strconv.FormatFloat(budget, 'f', -1, 64)
	}
	if task.AssignedToUserID != nil {
		for _, user := range opts.users {
			if user.ID == *task.AssignedToUserID {
				fields[fieldAssignee].Value = user.Email
			}
		}
	}
	return fields
}

type formValues struct {
	title       string
	description string
	projectID   string
	status      string
	budget      *float64
	assigneeID  *string
}

func parseFormFields(fields []formField, opts formOptions) (formValues, error) {
	values := formValues{
		title:       strings.TrimSpace(fields[fieldTitle].Value),
		description: strings.TrimSpace(fields[fieldDescription].Value),
		status:      strings.TrimSpace(fields[fieldStatus].Value),
	}

	name := strings.TrimSpace(fields[fieldProject].Value)
	for _, project := range opts.projects {
		if project.Name == name {
			values.projectID = project.ID
			break
		}
	}
	if values.projectID == "" {
		return formValues{}, errors.New("pick a project")
	}

	budget, err := parseBudget(fields[fieldBudget].Value)
	if err != nil {
		return formValues{}, err
	}
	values.budget = budget

	email := strings.TrimSpace(fields[fieldAssignee].Value)
	if email != "" {
		for _, user := range opts.users {
			if strings.EqualFold(user.Email, email) {
				id := user.ID
				values.assigneeID = &id
				break
			}
		}
		if values.assigneeID == nil {
			return formValues{}, errors.New("unknown assignee " + email)
		}
	}
	return values, nil
}

func parseBudget(value string) (*float64, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "h"))
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, errors.New("invalid budget")
	}
	if err := model.ValidateBudget(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (v formValues) input() model.TaskInput {
	return model.TaskInput{
		ProjectID:        v.projectID,
		Title:            v.title,
		Description:      v.description,
		Status:           v.status,
		EffortHours:      v.budget,
		AssignedToUserID: v.assigneeID,
	}
}

func (v formValues) patch() model.TaskPatch {
	patch := model.TaskPatch{
		ProjectID:        model.Some(v.projectID),
		Title:            model.Some(v.title),
		Description:      model.Some(v.description),
		Status:           model.Some(v.status),
		EffortHours:      model.Null[float64](),
		AssignedToUserID: model.Null[string](),
	}
	if v.budget != nil {
		patch.EffortHours = model.Some(*v.budget)
	}
	if v.assigneeID != nil {
		patch.AssignedToUserID = model.Some(*v.assigneeID)
	}
	return patch
}

func isCycleField(index int) bool {
	return index == fieldProject || index == fieldStatus || index == fieldAssignee
}

func (o formOptions) choices(index int) []string {
	switch index {
	case fieldProject:
		names := make([]string, 0, len(o.projects))
		for _, project := range o.projects {
			names = append(names, project.Name)
		}
		return names
	case fieldStatus:
		statuses := model.Statuses()
		names := make([]string, 0, len(statuses))
		for _, status := range statuses {
			names = append(names, string(status))
		}
		return names
	case fieldAssignee:
		emails := []string{""}
		for _, user := range o.users {
			emails = append(emails, user.Email)
		}
		return emails
	default:
		return nil
	}
}

func cycleValue(options []string, current string, delta int) string {
	if len(options) == 0 {
		return ""
	}
	value := strings.TrimSpace(current)
	index := 0
	for i, option := range options {
		if option == value {
			index = i
			break
		}
	}
	index = (index + delta + len(options)) % len(options)
	return options[index]
}
