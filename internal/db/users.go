package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, created_at, updated_at, updated_by_user_id`

// CreateUser inserts a user whose PasswordHash is already set.
func (s *Store) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if user.PasswordHash == "" {
		return model.User{}, &model.ValidationError{Field: "password", Message: "password is required"}
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkEmailFree(ctx, tx, user.Email, user.ID); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, string(user.Role),
			user.CreatedAt.UTC(), user.UpdatedAt.UTC(), nullString(user.UpdatedByUserID),
		); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (model.User, error) {
	user, err := scanUser(s.queryRow(ctx, s.DB, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (model.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	user, err := scanUser(s.queryRow(ctx, s.DB, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", normalized, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", normalized, err)
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.query(ctx, s.DB, `SELECT `+userColumns+` FROM users ORDER BY last_name, first_name, email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser overwrites the stored user with user.
func (s *Store) UpdateUser(ctx context.Context, user model.User) (model.User, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.checkEmailFree(ctx, tx, user.Email, user.ID); err != nil {
			return err
		}
		res, err := s.exec(ctx, tx, `UPDATE users SET first_name = ?, last_name = ?, email = ?, password_hash = ?,
			role = ?, updated_at = ?, updated_by_user_id = ? WHERE id = ?`,
			user.FirstName, user.LastName, user.Email, user.PasswordHash,
			string(user.Role), user.UpdatedAt.UTC(), nullString(user.UpdatedByUserID), user.ID,
		)
		if err != nil {
			return fmt.Errorf("update user %s: %w", user.ID, err)
		}
		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

// DeleteUser removes the user and unassigns their tasks.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `UPDATE tasks SET assigned_to_user_id = NULL, updated_at = ?, version = version + 1
			WHERE assigned_to_user_id = ?`, s.now(), userID); err != nil {
			return fmt.Errorf("unassign tasks: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM users WHERE id = ?`, userID)
		if err != nil {
			return fmt.Errorf("delete user %s: %w", userID, err)
		}
		if affected, err := res.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil
	})
}

func (s *Store) checkEmailFree(ctx context.Context, q querier, email, exceptID string) error {
	var id string
	err := s.queryRow(ctx, q, `SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if id != exceptID {
		return &model.ValidationError{Field: "email", Message: "email is already in use"}
	}
	return nil
}

func scanUser(row scanner) (model.User, error) {
	var (
		user      model.User
		role      string
		updatedBy sql.NullString
	)
	if err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash, &role,
		&user.CreatedAt, &user.UpdatedAt, &updatedBy); err != nil {
		return model.User{}, err
	}
	user.Role = model.Role(strings.ToUpper(role))
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	user.UpdatedByUserID = stringPtr(updatedBy)
	return user, nil
}
