package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, first_name, last_name, email, username, password_hash, enabled, role)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, first_name, last_name, email, username, password_hash, enabled, role, lyceum_id
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(), arg.FirstName, arg.LastName, arg.Email, arg.Username, arg.HashedPassword, arg.Enabled, arg.Role,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return user, apperrors.ErrEmailTaken
			case "users_username_key":
				return user, apperrors.ErrUsernameTaken
			}
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, first_name, last_name, email, username, password_hash, enabled, role, lyceum_id
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, created_at, first_name, last_name, email, username, password_hash, enabled, role, lyceum_id
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT id, created_at, first_name, last_name, email, username, password_hash, enabled, role, lyceum_id
FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	return collectUser(rows)
}

const lockUserByID = `-- name: LockUserByID
SELECT id
FROM users
WHERE id = $1
FOR UPDATE
`

// LockByID holds a row lock on the user until the transaction ends.
// Rotation sequences (list usable, revoke, insert) run behind this lock.
func (r *UserRepo) LockByID(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, lockUserByID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const updateProfile = `-- name: UpdateProfile
UPDATE users
SET first_name = $2, last_name = $3
WHERE id = $1
RETURNING id, created_at, first_name, last_name, email, username, password_hash, enabled, role, lyceum_id
`

func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName string, lastName string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateProfile, userID, firstName, lastName)
	return collectUser(rows)
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userID, hashedPassword)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.FirstName, &u.LastName, &u.Email,
		&u.Username, &u.HashedPassword, &u.Enabled, &u.Role, &u.LyceumID,
	)
	return u, err
}
