package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	TotalPoints  int
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, username, email, password_hash, total_points, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.TotalPoints,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// CreateUser returns the raw 23505 error on duplicate username or email; see
// UniqueViolation.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	user, err := scanUser(q.db.QueryRow(ctx, query, arg.Username, arg.Email, arg.PasswordHash))
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(q.db.QueryRow(ctx, query, username))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRow(ctx, query, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) IsUserAdmin(ctx context.Context, userID int64) (bool, error) {
	var isAdmin bool
	err := q.db.QueryRow(ctx, `SELECT is_admin FROM users WHERE id = $1`, userID).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return isAdmin, nil
}

func (q *Queries) SetUserAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1`, userID, isAdmin)
	return err
}

// UpdateUserPassword reports false when the user no longer exists.
func (q *Queries) UpdateUserPassword(ctx context.Context, userID int64, newPasswordHash string) (bool, error) {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	tag, err := q.db.Exec(ctx, query, newPasswordHash, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
