package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hoangminh/herald/internal/models"
)

// CurrentUser returns the local account, or (nil, nil) when none exists.
// Local mode is single-user: the oldest row is the account.
func (s *Store) CurrentUser(ctx context.Context) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, accessibility, created_at, updated_at
		 FROM users
		 ORDER BY created_at, id
		 LIMIT 1`)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying current user: %w", err)
	}
	return user, nil
}

// UpdateUser persists the given user's mutable fields and returns the
// stored row. Returns ErrNotFound when no row matches the user's ID.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var accessibility sql.NullString
	if user.Accessibility != nil {
		accessibility = sql.NullString{String: *user.Accessibility, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, email = ?, accessibility = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		user.Name, user.Email, accessibility, user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating user %q: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update of user %q: %w", user.ID, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, accessibility, created_at, updated_at
		 FROM users
		 WHERE id = ?`, user.ID)

	updated, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("reloading user %q: %w", user.ID, err)
	}
	return updated, nil
}

// SeedDefaultUser inserts the single local account if the users table is
// empty. The accessibility blob starts out null; preferences are written
// lazily on first use.
func (s *Store) SeedDefaultUser(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return nil
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
		id, "Herald Admin", "admin@localhost",
	); err != nil {
		return fmt.Errorf("seeding default user: %w", err)
	}

	slog.Info("seeded default local user", "id", id)
	return nil
}

// scanUser reads one user row from a QueryRow result.
func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user          models.User
		accessibility sql.NullString
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(
		&user.ID, &user.Name, &user.Email, &accessibility,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	if accessibility.Valid {
		user.Accessibility = &accessibility.String
	}
	user.CreatedAt = parseTime(createdAt)
	user.UpdatedAt = parseTime(updatedAt)
	return &user, nil
}
