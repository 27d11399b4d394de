package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
	"github.com/amezhin/eduseek/internal/service/auth"
)

// Service covers the profile surface: reading and updating the own
// account of an already authenticated user
type Service struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *Service {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &Service{
		hasher:  hasher,
		storage: storage,
	}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName string, lastName string) (models.User, error) {
	return s.storage.User().UpdateProfile(ctx, userID, firstName, lastName)
}

// ChangePassword verifies the current password, stores the new hash and
// ends every active session: all usable access tokens are revoked in the
// same transaction as the password write.
func (s *Service) ChangePassword(ctx context.Context, actor models.User, current string, newPassword string) error {
	if err := s.hasher.Compare(actor.HashedPassword, current); err != nil {
		return apperrors.Wrap(apperrors.KindUnauthorized, "Current password is incorrect", err)
	}

	if len(newPassword) < auth.MinPasswordLen {
		return apperrors.BadRequest(fmt.Sprintf("Password must be at least %d characters long", auth.MinPasswordLen))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	return s.storage.InTx(ctx, func(store repository.Storage) error {
		if err := store.User().UpdatePassword(ctx, actor.ID, hash); err != nil {
			return err
		}

		usable, err := store.Token().ListUsable(ctx, actor.ID, models.TokenKindAccess)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(usable))
		for _, t := range usable {
			ids = append(ids, t.ID)
		}

		_, err = store.Token().RevokeByIDs(ctx, ids)
		return err
	})
}
