package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

const projectColumns = `id, name, description, created_at, updated_at, updated_by_user_id`

func (s *Store) CreateProject(ctx context.Context, input model.ProjectInput) (model.Project, error) {
	project, err := model.NewProject(input, s.now())
	if err != nil {
		return model.Project{}, err
	}
	if _, err := s.exec(ctx, s.DB, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.Description, project.CreatedAt, project.UpdatedAt, nullString(project.UpdatedByUserID),
	); err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return project, nil
}

func (s *Store) GetProject(ctx context.Context, projectID string) (model.Project, error) {
	return s.getProject(ctx, s.DB, projectID)
}

func (s *Store) getProject(ctx context.Context, q querier, projectID string) (model.Project, error) {
	project, err := scanProject(s.queryRow(ctx, q, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return project, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.query(ctx, s.DB, `SELECT `+projectColumns+` FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) (model.Project, error) {
	var updated model.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		before, err := s.getProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		after, err := patch.Apply(before, s.now())
		if err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, `UPDATE projects SET name = ?, description = ?, updated_at = ?, updated_by_user_id = ? WHERE id = ?`,
			after.Name, after.Description, after.UpdatedAt, nullString(after.UpdatedByUserID), projectID,
		); err != nil {
			return fmt.Errorf("update project %s: %w", projectID, err)
		}
		updated = after
		return nil
	})
	return updated, err
}

// DeleteProject removes the project together with its tasks. Each task gets
// a deleted history entry.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getProject(ctx, tx, projectID); err != nil {
			return err
		}

		rows, err := s.query(ctx, tx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ?`, projectID)
		if err != nil {
			return fmt.Errorf("list project tasks: %w", err)
		}
		var tasks []model.Task
		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan task: %w", err)
			}
			tasks = append(tasks, task)
		}
		if err := rows.Close(); err != nil {
			return err
		}

		now := s.now()
		for _, task := range tasks {
			if err := s.addHistory(ctx, tx, task.ID, "deleted", formatDeletedDetails(task), now); err != nil {
				return err
			}
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM tasks WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("delete project tasks: %w", err)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM projects WHERE id = ?`, projectID); err != nil {
			return fmt.Errorf("delete project %s: %w", projectID, err)
		}
		return nil
	})
}

func scanProject(row scanner) (model.Project, error) {
	var (
		project   model.Project
		updatedBy sql.NullString
	)
	if err := row.Scan(&project.ID, &project.Name, &project.Description, &project.CreatedAt, &project.UpdatedAt, &updatedBy); err != nil {
		return model.Project{}, err
	}
	project.CreatedAt = project.CreatedAt.UTC()
	project.UpdatedAt = project.UpdatedAt.UTC()
	project.UpdatedByUserID = stringPtr(updatedBy)
	return project, nil
}
