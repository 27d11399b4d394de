package image

import (
	"context"
	"errors"
	"time"

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

type AttachParams struct {
	OwnerKind   string
	OwnerID     uuid.UUID
	Filename    string
	ContentType string
	SizeBytes   int64
	URL         string
}

// Attach records image metadata for a course or a lyceum.
// The owner must exist and the actor must be allowed to manage it.
func (s *Service) Attach(ctx context.Context, actor models.User, arg AttachParams) (models.Image, error) {
	var image models.Image

	lyceumID, err := s.resolveOwnerLyceum(ctx, arg.OwnerKind, arg.OwnerID)
	if err != nil {
		return image, err
	}

	if !actor.IsAdmin() && !actor.Administers(lyceumID) {
		return image, apperrors.AccessDenied("Not enough permissions")
	}

	return s.storage.Image().Save(ctx, models.Image{
		ID:          uuid.New(),
		CreatedAt:   time.Now(),
		OwnerKind:   arg.OwnerKind,
		OwnerID:     arg.OwnerID,
		Filename:    arg.Filename,
		ContentType: arg.ContentType,
		SizeBytes:   arg.SizeBytes,
		URL:         arg.URL,
	})
}

func (s *Service) ListByOwner(ctx context.Context, ownerKind string, ownerID uuid.UUID) ([]models.Image, error) {
	if _, err := s.resolveOwnerLyceum(ctx, ownerKind, ownerID); err != nil {
		return nil, err
	}

	return s.storage.Image().ListByOwner(ctx, ownerKind, ownerID)
}

// resolveOwnerLyceum checks the owner exists and returns the lyceum that
// governs permissions for it: the lyceum itself, or the course's lyceum
func (s *Service) resolveOwnerLyceum(ctx context.Context, ownerKind string, ownerID uuid.UUID) (uuid.UUID, error) {
	switch ownerKind {
	case models.ImageOwnerLyceum:
		lyceum, err := s.storage.Lyceum().GetByID(ctx, ownerID)
		if errors.Is(err, apperrors.ErrLyceumNotFound) {
			return uuid.Nil, apperrors.Wrap(apperrors.KindNotFound, "Lyceum not found", err)
		}
		return lyceum.ID, err

	case models.ImageOwnerCourse:
		course, err := s.storage.Course().GetByID(ctx, ownerID)
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return uuid.Nil, apperrors.Wrap(apperrors.KindNotFound, "Course not found", err)
		}
		return course.LyceumID, err

	default:
		return uuid.Nil, apperrors.BadRequest("Unknown image owner kind")
	}
}
