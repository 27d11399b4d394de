package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amezhin/eduseek/internal/models"
)

// Storage is the full set of repositories plus transaction support
type Storage interface {
	User() UserRepo
	Token() TokenRepo
	Lyceum() LyceumRepo
	Course() CourseRepo
	Image() ImageRepo

	// InTx runs fn with a Storage bound to a single db transaction.
	// Commits if fn returns nil, rolls back otherwise.
	InTx(ctx context.Context, fn func(s Storage) error) error
}

type CreateUserParams struct {
	FirstName      string
	LastName       string
	Email          string
	Username       string
	HashedPassword string
	Role           string
	Enabled        bool
}

// User repository interface
type UserRepo interface {
	// Create user
	// Returns apperrors.ErrEmailTaken or apperrors.ErrUsernameTaken on
	// unique violations
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, email or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Take a row level lock on the user, held until the surrounding
	// transaction ends. Session rotation locks first, so two racing
	// rotations for one user run one after the other.
	// Must be called inside a transaction, returns ErrUserNotFound
	// if the user does not exist.
	LockByID(ctx context.Context, userID uuid.UUID) error

	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName string, lastName string) (models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// Token ledger interface. Pure data access: rotation rules live in the
// auth service, not here.
type TokenRepo interface {
	// Save token row, value must be unique across all tokens
	Save(ctx context.Context, token models.Token) (models.Token, error)

	// Get row by the exact raw value
	// If not found must return apperrors.ErrTokenNotFound
	GetByValue(ctx context.Context, value string) (models.Token, error)

	// All rows for the user with revoked=false and expired=false
	ListUsable(ctx context.Context, userID uuid.UUID, kind string) ([]models.Token, error)

	// Set revoked=true and expired=true on every row with the given ids,
	// returns the number of rows touched
	RevokeByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// Mark still-usable rows of the kind created before cutoff as expired.
	// Used by the background sweeper, returns the number of rows touched.
	ExpireOlderThan(ctx context.Context, kind string, cutoff time.Time) (int64, error)
}

type CreateLyceumParams struct {
	Name        string
	City        string
	Address     string
	Description string
}

type UpdateLyceumParams struct {
	Name        *string
	City        *string
	Address     *string
	Description *string
}

type ListLyceumsOpts struct {
	City   string
	Search string
	Limit  int
	Offset int
}

type LyceumRepo interface {
	Create(ctx context.Context, arg CreateLyceumParams) (models.Lyceum, error)

	// If not found must return apperrors.ErrLyceumNotFound
	GetByID(ctx context.Context, id uuid.UUID) (models.Lyceum, error)

	List(ctx context.Context, opts ListLyceumsOpts) ([]models.Lyceum, error)
	Update(ctx context.Context, id uuid.UUID, arg UpdateLyceumParams) (models.Lyceum, error)
}

type CreateCourseParams struct {
	LyceumID    uuid.UUID
	Title       string
	Subject     string
	Description string
	Price       decimal.Decimal
	Weeks       int
}

type UpdateCourseParams struct {
	Title       *string
	Subject     *string
	Description *string
	Price       *decimal.Decimal
	Weeks       *int
}

type ListCoursesOpts struct {
	LyceumID *uuid.UUID
	Subject  string
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}

type CourseRepo interface {
	Create(ctx context.Context, arg CreateCourseParams) (models.Course, error)

	// If not found must return apperrors.ErrCourseNotFound
	GetByID(ctx context.Context, id uuid.UUID) (models.Course, error)

	List(ctx context.Context, opts ListCoursesOpts) ([]models.Course, error)
	Update(ctx context.Context, id uuid.UUID, arg UpdateCourseParams) (models.Course, error)
}

type ImageRepo interface {
	Save(ctx context.Context, image models.Image) (models.Image, error)
	ListByOwner(ctx context.Context, ownerKind string, ownerID uuid.UUID) ([]models.Image, error)
}
