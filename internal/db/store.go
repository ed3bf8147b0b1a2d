package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
	"github.com/Joseda-hg/lazyplan/internal/tracking"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("task was modified concurrently")

	errStaleVersion = errors.New("stale task version")
)

// Attempts made by a task mutation before giving up with ErrConflict.
const maxMutationAttempts = 3

type Store struct {
	DB     *sql.DB
	Driver string
	Now    func() time.Time
}

func NewStore(db *sql.DB, driver string) *Store {
	normalized, err := normalizeDriver(driver)
	if err != nil {
		normalized = DriverSQLite
	}
	return &Store{DB: db, Driver: normalized, Now: time.Now}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, rebind(s.Driver, query), args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, rebind(s.Driver, query), args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, rebind(s.Driver, query), args...)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const taskColumns = `id, project_id, title, description, status, effort_hours, assigned_to_user_id,
	created_at, updated_at, updated_by_user_id, started_at, current_session_started_at,
	paused_at, completed_at, actual_effort_minutes, version`

func (s *Store) CreateTask(ctx context.Context, input model.TaskInput) (model.Task, error) {
	task, err := model.NewTask(input, s.now())
	if err != nil {
		return model.Task{}, err
	}
	task.CreatedAt = task.CreatedAt.UTC()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkReferences(ctx, tx, task); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, `INSERT INTO tasks (`+taskColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.ID, task.ProjectID, task.Title, task.Description, string(task.Status), nullFloat(task.EffortHours),
			nullString(task.AssignedToUserID), task.CreatedAt, task.UpdatedAt, nullString(task.UpdatedByUserID),
			nullTime(task.StartedAt), nullTime(task.CurrentSessionStartedAt), nullTime(task.PausedAt),
			nullTime(task.CompletedAt), task.ActualEffortMinutes, task.Version,
		); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return s.addHistory(ctx, tx, task.ID, "created", formatCreatedDetails(task), task.UpdatedAt)
	})
	if err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *Store) GetTask(ctx context.Context, taskID string) (model.Task, error) {
	return s.getTask(ctx, s.DB, taskID)
}

func (s *Store) getTask(ctx context.Context, q querier, taskID string) (model.Task, error) {
	row := s.queryRow(ctx, q, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return task, nil
}

func (s *Store) ListTasks(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	var (
		where []string
		args  []any
	)
	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		pattern := "%" + query + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if projectID := strings.TrimSpace(filter.ProjectID); projectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, projectID)
	}
	if assigneeID := strings.TrimSpace(filter.AssigneeID); assigneeID != "" {
		where = append(where, "assigned_to_user_id = ?")
		args = append(args, assigneeID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(model.NormalizeStatus(string(filter.Status))))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.query(ctx, s.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	result := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

// UpdateTask applies an explicit edit. Unlike a transition it may reset the
// accumulated effort.
func (s *Store) UpdateTask(ctx context.Context, taskID string, patch model.TaskPatch) (model.Task, error) {
	now := s.now()
	return s.mutateTask(ctx, taskID, func(tx *sql.Tx, before model.Task) (model.Task, string, string, error) {
		after, err := patch.Apply(before, now)
		if err != nil {
			return model.Task{}, "", "", err
		}
		if err := s.checkReferences(ctx, tx, after); err != nil {
			return model.Task{}, "", "", err
		}
		return after, "updated", formatTaskDiff(before, after), nil
	})
}

// ApplyTransition runs a timing transition as an atomic read-modify-write.
// The clock is read once, so every field written by the transition agrees,
// including on retries.
func (s *Store) ApplyTransition(ctx context.Context, taskID string, action tracking.Action) (model.Task, error) {
	now := s.now()
	op := action.Op()
	return s.mutateTask(ctx, taskID, func(_ *sql.Tx, before model.Task) (model.Task, string, string, error) {
		timing, err := op(before, now)
		if err != nil {
			return model.Task{}, "", "", err
		}
		after := timing.Apply(before)
		after.UpdatedAt = now
		return after, action.Event(), formatTransitionDetails(action, before, after), nil
	})
}

type taskChange func(tx *sql.Tx, before model.Task) (after model.Task, eventType, details string, err error)

// mutateTask reads the task, computes the change and writes it back only if
// nobody else wrote in between. A lost race is retried on a fresh read.
func (s *Store) mutateTask(ctx context.Context, taskID string, change taskChange) (model.Task, error) {
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		var updated model.Task
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			before, err := s.getTask(ctx, tx, taskID)
			if err != nil {
				return err
			}
			after, eventType, details, err := change(tx, before)
			if err != nil {
				return err
			}

			res, err := s.exec(ctx, tx, `UPDATE tasks SET
				project_id = ?, title = ?, description = ?, status = ?, effort_hours = ?,
				assigned_to_user_id = ?, created_at = ?, updated_at = ?, updated_by_user_id = ?,
				started_at = ?, current_session_started_at = ?, paused_at = ?, completed_at = ?,
				actual_effort_minutes = ?, version = version + 1
				WHERE id = ? AND version = ?`,
				after.ProjectID, after.Title, after.Description, string(after.Status), nullFloat(after.EffortHours),
				nullString(after.AssignedToUserID), after.CreatedAt.UTC(), after.UpdatedAt, nullString(after.UpdatedByUserID),
				nullTime(after.StartedAt), nullTime(after.CurrentSessionStartedAt), nullTime(after.PausedAt),
				nullTime(after.CompletedAt), after.ActualEffortMinutes,
				taskID, before.Version,
			)
			if err != nil {
				return fmt.Errorf("update task %s: %w", taskID, err)
			}
			if affected, err := res.RowsAffected(); err != nil {
				return err
			} else if affected == 0 {
				return errStaleVersion
			}

			after.Version = before.Version + 1
			if err := s.addHistory(ctx, tx, taskID, eventType, details, after.UpdatedAt); err != nil {
				return err
			}
			updated = after
			return nil
		})
		if errors.Is(err, errStaleVersion) {
			continue
		}
		if err != nil {
			return model.Task{}, err
		}
		return updated, nil
	}
	return model.Task{}, fmt.Errorf("task %s: %w", taskID, ErrConflict)
}

func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		before, err := s.getTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := s.addHistory(ctx, tx, taskID, "deleted", formatDeletedDetails(before), s.now()); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM tasks WHERE id = ?`, taskID); err != nil {
			return fmt.Errorf("delete task %s: %w", taskID, err)
		}
		return nil
	})
}

func (s *Store) checkReferences(ctx context.Context, q querier, task model.Task) error {
	var exists int
	err := s.queryRow(ctx, q, `SELECT 1 FROM projects WHERE id = ?`, task.ProjectID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.ValidationError{Field: "projectId", Message: "project does not exist", Err: ErrNotFound}
	}
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}

	if task.AssignedToUserID == nil {
		return nil
	}
	err = s.queryRow(ctx, q, `SELECT 1 FROM users WHERE id = ?`, *task.AssignedToUserID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.ValidationError{Field: "assignedToUserId", Message: "user does not exist", Err: ErrNotFound}
	}
	if err != nil {
		return fmt.Errorf("check assignee: %w", err)
	}
	return nil
}

func (s *Store) addHistory(ctx context.Context, q querier, taskID, eventType, details string, at time.Time) error {
	if _, err := s.exec(ctx, q, `INSERT INTO task_history (task_id, event_type, details, created_at) VALUES (?, ?, ?, ?)`,
		taskID, eventType, details, at.UTC(),
	); err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

// ListHistory returns the task's events, newest first. Entries outlive the
// task they describe.
func (s *Store) ListHistory(ctx context.Context, taskID string) ([]model.HistoryEntry, error) {
	rows, err := s.query(ctx, s.DB, `SELECT id, task_id, event_type, details, created_at
		FROM task_history WHERE task_id = ? ORDER BY created_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	history := []model.HistoryEntry{}
	for rows.Next() {
		var entry model.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.EventType, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		history = append(history, entry)
	}
	return history, rows.Err()
}

func scanTask(row scanner) (model.Task, error) {
	var (
		task        model.Task
		status      string
		effortHours sql.NullFloat64
		assignedTo  sql.NullString
		updatedBy   sql.NullString
		startedAt   sql.NullTime
		sessionAt   sql.NullTime
		pausedAt    sql.NullTime
		doneAt      sql.NullTime
	)
	if err := row.Scan(
		&task.ID, &task.ProjectID, &task.Title, &task.Description, &status, &effortHours, &assignedTo,
		&task.CreatedAt, &task.UpdatedAt, &updatedBy, &startedAt, &sessionAt,
		&pausedAt, &doneAt, &task.ActualEffortMinutes, &task.Version,
	); err != nil {
		return model.Task{}, err
	}

	// Stored rows are trusted as-is; only legacy spellings are mapped.
	task.Status = model.NormalizeStatus(status)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if effortHours.Valid {
		task.EffortHours = &effortHours.Float64
	}
	task.AssignedToUserID = stringPtr(assignedTo)
	task.UpdatedByUserID = stringPtr(updatedBy)
	task.StartedAt = timePtr(startedAt)
	task.CurrentSessionStartedAt = timePtr(sessionAt)
	task.PausedAt = timePtr(pausedAt)
	task.CompletedAt = timePtr(doneAt)
	return task, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	result := value.String
	return &result
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	result := value.Time.UTC()
	return &result
}
