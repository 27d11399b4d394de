package user

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
	"github.com/amezhin/eduseek/internal/repository/postgres"
	"github.com/amezhin/eduseek/internal/service/auth"
	"github.com/amezhin/eduseek/internal/testutil"
)

func Test_ProfileService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run fn with profile and auth services bound to a rolled back transaction
	withServices := func(t *testing.T, fn func(profile *Service, authSrv *auth.Service, store repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			store := postgres.NewStorage(tx)

			authSrv, err := auth.NewService(auth.Config{SecretKey: "test-secret-key"}, store)
			require.NoError(t, err)

			fn(NewService(auth.DefaultHasher, store), authSrv, store)
		})
	}

	register := func(t *testing.T, authSrv *auth.Service, store repository.Storage) models.User {
		t.Helper()

		_, err := authSrv.Register(t.Context(), auth.RegisterParams{
			FirstName:        "Alice",
			LastName:         "Liddell",
			Email:            "a@x.com",
			Username:         "alice",
			Password:         "longenough1",
			RepeatedPassword: "longenough1",
		})
		require.NoError(t, err)

		user, err := store.User().GetUserByEmail(t.Context(), "a@x.com")
		require.NoError(t, err)
		return user
	}

	t.Run("update profile changes names only", func(t *testing.T) {
		withServices(t, func(profile *Service, authSrv *auth.Service, store repository.Storage) {
			user := register(t, authSrv, store)

			updated, err := profile.UpdateProfile(t.Context(), user.ID, "Mary", "Ann")

			require.NoError(t, err)
			require.Equal(t, "Mary", updated.FirstName)
			require.Equal(t, "Ann", updated.LastName)
			require.Equal(t, user.Email, updated.Email)
			require.Equal(t, user.Username, updated.Username)
		})
	})

	t.Run("change password ends active sessions", func(t *testing.T) {
		withServices(t, func(profile *Service, authSrv *auth.Service, store repository.Storage) {
			user := register(t, authSrv, store)

			before, err := store.Token().ListUsable(t.Context(), user.ID, models.TokenKindAccess)
			require.NoError(t, err)
			require.Len(t, before, 1, "registration should leave one usable session")

			err = profile.ChangePassword(t.Context(), user, "longenough1", "evenlonger22")
			require.NoError(t, err)

			after, err := store.Token().ListUsable(t.Context(), user.ID, models.TokenKindAccess)
			require.NoError(t, err)
			require.Empty(t, after, "every usable access token must be revoked")

			// Old password stops working, the new one logs in
			_, err = authSrv.Login(t.Context(), "a@x.com", "longenough1")
			require.Error(t, err)

			_, err = authSrv.Login(t.Context(), "a@x.com", "evenlonger22")
			require.NoError(t, err)
		})
	})

	t.Run("change password with wrong current", func(t *testing.T) {
		withServices(t, func(profile *Service, authSrv *auth.Service, store repository.Storage) {
			user := register(t, authSrv, store)

			err := profile.ChangePassword(t.Context(), user, "not-the-password", "evenlonger22")

			require.Error(t, err)
			require.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
		})
	})

	t.Run("change password too short", func(t *testing.T) {
		withServices(t, func(profile *Service, authSrv *auth.Service, store repository.Storage) {
			user := register(t, authSrv, store)

			err := profile.ChangePassword(t.Context(), user, "longenough1", "short")

			require.Error(t, err)
			require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
		})
	})
}
