package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
)

type CourseRepo struct {
	DB DBTX
}

const createCourse = `-- name: CreateCourse
INSERT INTO courses (id, lyceum_id, title, subject, description, price, weeks)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, lyceum_id, created_at, title, subject, description, price, weeks
`

func (r *CourseRepo) Create(ctx context.Context, arg repository.CreateCourseParams) (models.Course, error) {
	rows, _ := r.DB.Query(ctx, createCourse,
		uuid.New(), arg.LyceumID, arg.Title, arg.Subject, arg.Description, arg.Price, arg.Weeks,
	)
	course, err := pgx.CollectOneRow(rows, rowToCourse)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return course, apperrors.ErrLyceumNotFound
		}
		return course, fmt.Errorf("db error: %w", err)
	}

	return course, nil
}

const getCourseByID = `-- name: GetCourseByID
SELECT id, lyceum_id, created_at, title, subject, description, price, weeks
FROM courses
WHERE id = $1
`

func (r *CourseRepo) GetByID(ctx context.Context, id uuid.UUID) (models.Course, error) {
	rows, _ := r.DB.Query(ctx, getCourseByID, id)
	course, err := pgx.CollectOneRow(rows, rowToCourse)

	switch {
	case err == nil:
		return course, nil
	case errors.Is(err, pgx.ErrNoRows):
		return course, apperrors.ErrCourseNotFound
	default:
		return course, fmt.Errorf("db error: %w", err)
	}
}

// List filters are combined with AND, empty filters are skipped
func (r *CourseRepo) List(ctx context.Context, opts repository.ListCoursesOpts) ([]models.Course, error) {
	query := strings.Builder{}
	query.WriteString(`
	SELECT id, lyceum_id, created_at, title, subject, description, price, weeks
	FROM courses
	WHERE true`)

	args := []any{}
	if opts.LyceumID != nil {
		args = append(args, *opts.LyceumID)
		fmt.Fprintf(&query, " AND lyceum_id = $%d", len(args))
	}
	if opts.Subject != "" {
		args = append(args, opts.Subject)
		fmt.Fprintf(&query, " AND subject = $%d", len(args))
	}
	if opts.MaxPrice != nil {
		args = append(args, *opts.MaxPrice)
		fmt.Fprintf(&query, " AND price <= $%d", len(args))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&query, " ORDER BY title LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	fmt.Fprintf(&query, " OFFSET $%d", len(args))

	rows, _ := r.DB.Query(ctx, query.String(), args...)
	courses, err := pgx.CollectRows(rows, rowToCourse)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return courses, nil
}

const updateCourse = `-- name: UpdateCourse
UPDATE courses
SET title       = COALESCE($2, title),
    subject     = COALESCE($3, subject),
    description = COALESCE($4, description),
    price       = COALESCE($5, price),
    weeks       = COALESCE($6, weeks)
WHERE id = $1
RETURNING id, lyceum_id, created_at, title, subject, description, price, weeks
`

func (r *CourseRepo) Update(ctx context.Context, id uuid.UUID, arg repository.UpdateCourseParams) (models.Course, error) {
	rows, _ := r.DB.Query(ctx, updateCourse, id, arg.Title, arg.Subject, arg.Description, arg.Price, arg.Weeks)
	course, err := pgx.CollectOneRow(rows, rowToCourse)

	switch {
	case err == nil:
		return course, nil
	case errors.Is(err, pgx.ErrNoRows):
		return course, apperrors.ErrCourseNotFound
	default:
		return course, fmt.Errorf("db error: %w", err)
	}
}

func rowToCourse(row pgx.CollectableRow) (models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.LyceumID, &c.CreatedAt, &c.Title, &c.Subject, &c.Description, &c.Price, &c.Weeks)
	return c, err
}
