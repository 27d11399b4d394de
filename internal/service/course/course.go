package course

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
)

type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) List(ctx context.Context, opts repository.ListCoursesOpts) ([]models.Course, error) {
	return s.storage.Course().List(ctx, opts)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Course, error) {
	course, err := s.storage.Course().GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrCourseNotFound) {
		return course, apperrors.Wrap(apperrors.KindNotFound, "Course not found", err)
	}
	return course, err
}

// Create is allowed for privileged users and for the admin of the lyceum
// the course belongs to
func (s *Service) Create(ctx context.Context, actor models.User, arg repository.CreateCourseParams) (models.Course, error) {
	if !actor.IsAdmin() && !actor.Administers(arg.LyceumID) {
		return models.Course{}, apperrors.AccessDenied("Not enough permissions")
	}

	if arg.Price.IsNegative() {
		return models.Course{}, apperrors.BadRequest("Price must not be negative")
	}

	course, err := s.storage.Course().Create(ctx, arg)
	if errors.Is(err, apperrors.ErrLyceumNotFound) {
		return course, apperrors.Wrap(apperrors.KindNotFound, "Lyceum not found", err)
	}
	return course, err
}

func (s *Service) Update(ctx context.Context, actor models.User, id uuid.UUID, arg repository.UpdateCourseParams) (models.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return course, err
	}

	if !actor.IsAdmin() && !actor.Administers(course.LyceumID) {
		return models.Course{}, apperrors.AccessDenied("Not enough permissions")
	}

	if arg.Price != nil && arg.Price.IsNegative() {
		return models.Course{}, apperrors.BadRequest("Price must not be negative")
	}

	return s.storage.Course().Update(ctx, id, arg)
}
