package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
)

const defaultListLimit = 50

type LyceumRepo struct {
	DB DBTX
}

const createLyceum = `-- name: CreateLyceum
INSERT INTO lyceums (id, name, city, address, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, name, city, address, description
`

func (r *LyceumRepo) Create(ctx context.Context, arg repository.CreateLyceumParams) (models.Lyceum, error) {
	rows, _ := r.DB.Query(ctx, createLyceum, uuid.New(), arg.Name, arg.City, arg.Address, arg.Description)
	lyceum, err := pgx.CollectOneRow(rows, rowToLyceum)
	if err != nil {
		return lyceum, fmt.Errorf("db error: %w", err)
	}
	return lyceum, nil
}

const getLyceumByID = `-- name: GetLyceumByID
SELECT id, created_at, name, city, address, description
FROM lyceums
WHERE id = $1
`

func (r *LyceumRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Lyceum, error) {
	rows, _ := r.DB.Query(ctx, getLyceumByID, id)
	lyceum, err := pgx.CollectOneRow(rows, rowToLyceum)

	switch {
	case err == nil:
		return lyceum, nil
	case errors.Is(err, pgx.ErrNoRows):
		return lyceum, apperrors.ErrLyceumNotFound
	default:
		return lyceum, fmt.Errorf("db error: %w", err)
	}
}

// List filters are combined with AND, empty filters are skipped
func (r *LyceumRepo) List(ctx context.Context, opts repository.ListLyceumsOpts) ([]models.Lyceum, error) {
	query := strings.Builder{}
	query.WriteString(`
	SELECT id, created_at, name, city, address, description
	FROM lyceums
	WHERE true`)

	args := []any{}
	if opts.City != "" {
		args = append(args, opts.City)
		fmt.Fprintf(&query, " AND city = $%d", len(args))
	}
	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		fmt.Fprintf(&query, " AND name ILIKE $%d", len(args))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&query, " ORDER BY name LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	fmt.Fprintf(&query, " OFFSET $%d", len(args))

	rows, _ := r.DB.Query(ctx, query.String(), args...)
	lyceums, err := pgx.CollectRows(rows, rowToLyceum)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return lyceums, nil
}

const updateLyceum = `-- name: UpdateLyceum
UPDATE lyceums
SET name        = COALESCE($2, name),
    city        = COALESCE($3, city),
    address     = COALESCE($4, address),
    description = COALESCE($5, description)
WHERE id = $1
RETURNING id, created_at, name, city, address, description
`

func (r *LyceumRepo) Update(ctx context.Context, id uuid.UUID, arg repository.UpdateLyceumParams) (models.Lyceum, error) {
	rows, _ := r.DB.Query(ctx, updateLyceum, id, arg.Name, arg.City, arg.Address, arg.Description)
	lyceum, err := pgx.CollectOneRow(rows, rowToLyceum)

	switch {
	case err == nil:
		return lyceum, nil
	case errors.Is(err, pgx.ErrNoRows):
		return lyceum, apperrors.ErrLyceumNotFound
	default:
		return lyceum, fmt.Errorf("db error: %w", err)
	}
}

func rowToLyceum(row pgx.CollectableRow) (models.Lyceum, error) {
	var l models.Lyceum
	err := row.Scan(&l.ID, &l.CreatedAt, &l.Name, &l.City, &l.Address, &l.Description)
	return l, err
}
