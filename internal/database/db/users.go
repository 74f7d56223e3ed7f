package db

import (
	"context"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/jackc/pgx/v5"
)

const createUser = `
INSERT INTO users (username, password_hash, is_admin)
VALUES ($1, $2, $3)
RETURNING id, username, password_hash, is_admin, created_at
`

type CreateUserParams struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Username, arg.PasswordHash, arg.IsAdmin)
	u, err := scanUser(row)
	return u, mapError(err)
}

// Existing accounts keep their password and are promoted to admin
const ensureAdmin = `
INSERT INTO users (username, password_hash, is_admin)
VALUES ($1, $2, TRUE)
ON CONFLICT (username) DO UPDATE SET is_admin = TRUE
RETURNING id, username, password_hash, is_admin, created_at
`

func (q *Queries) EnsureAdmin(ctx context.Context, username, passwordHash string) (models.User, error) {
	row := q.db.QueryRow(ctx, ensureAdmin, username, passwordHash)
	u, err := scanUser(row)
	return u, mapError(err)
}

const getUserByUsername = `
SELECT id, username, password_hash, is_admin, created_at
FROM users
WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, getUserByUsername, username))
	return u, mapError(err)
}

const getUserByID = `
SELECT id, username, password_hash, is_admin, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, getUserByID, id))
	return u, mapError(err)
}

const listUsers = `
SELECT id, username, password_hash, is_admin, created_at
FROM users
WHERE $1 = '' OR username ILIKE '%' || $1 || '%'
ORDER BY username
`

func (q *Queries) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	rows, err := q.db.Query(ctx, listUsers, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const deleteUser = `DELETE FROM users WHERE id = $1`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, deleteUser, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}
