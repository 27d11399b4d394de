package lyceum

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

func (s *Service) List(ctx context.Context, opts repository.ListLyceumsOpts) ([]models.Lyceum, error) {
	return s.storage.Lyceum().List(ctx, opts)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Lyceum, error) {
	lyceum, err := s.storage.Lyceum().GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrLyceumNotFound) {
		return lyceum, apperrors.Wrap(apperrors.KindNotFound, "Lyceum not found", err)
	}
	return lyceum, err
}

func (s *Service) Create(ctx context.Context, arg repository.CreateLyceumParams) (models.Lyceum, error) {
	return s.storage.Lyceum().Create(ctx, arg)
}

// Update is allowed for privileged users and for the lyceum's own admin
func (s *Service) Update(ctx context.Context, actor models.User, id uuid.UUID, arg repository.UpdateLyceumParams) (models.Lyceum, error) {
	if !actor.IsAdmin() && !actor.Administers(id) {
		return models.Lyceum{}, apperrors.AccessDenied("Not enough permissions")
	}

	lyceum, err := s.storage.Lyceum().Update(ctx, id, arg)
	if errors.Is(err, apperrors.ErrLyceumNotFound) {
		return lyceum, apperrors.Wrap(apperrors.KindNotFound, "Lyceum not found", err)
	}
	return lyceum, err
}
