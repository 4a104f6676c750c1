package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, industry, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())`
	_, err := r.DB.ExecContext(ctx, query, user.ID, user.Email, nullableString(user.Industry))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, industry, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	return r.getOne(ctx, query, userID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
SELECT id, email, industry, created_at, updated_at
FROM users
WHERE email = $1
LIMIT 1`
	return r.getOne(ctx, query, email)
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg string) (User, error) {
	var user User
	var industry sql.NullString
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&industry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if industry.Valid {
		user.Industry = industry.String
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
