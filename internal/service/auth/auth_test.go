package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
	"github.com/amezhin/eduseek/internal/repository/postgres"
	"github.com/amezhin/eduseek/internal/testutil"
)

var registerParams = RegisterParams{
	FirstName:        "Alice",
	LastName:         "Liddell",
	Email:            "a@x.com",
	Username:         "alice",
	Password:         "longenough1",
	RepeatedPassword: "longenough1",
}

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run fn with service bound to a rolled back transaction
	withService := func(t *testing.T, cfg Config, fn func(s *Service, store repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			if cfg.SecretKey == "" {
				cfg.SecretKey = "test-secret-key"
			}
			store := postgres.NewStorage(tx)

			s, err := NewService(cfg, store)
			require.NoError(t, err, "auth service should be created without errors")

			fn(s, store)
		})
	}

	usableTokens := func(t *testing.T, store repository.Storage, email string) []models.Token {
		t.Helper()
		user, err := store.User().GetUserByEmail(t.Context(), email)
		require.NoError(t, err)
		tokens, err := store.Token().ListUsable(t.Context(), user.ID, models.TokenKindAccess)
		require.NoError(t, err)
		return tokens
	}

	t.Run("Register", func(t *testing.T) {
		t.Run("returns pair and single usable ledger row", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				assert.NotEmpty(t, pair.Access.Value)
				assert.NotEmpty(t, pair.Refresh.Value)
				assert.NotEqual(t, pair.Access.Value, pair.Refresh.Value)

				tokens := usableTokens(t, store, registerParams.Email)
				require.Len(t, tokens, 1, "exactly one usable ledger row should exist")
				assert.Equal(t, pair.Access.Value, tokens[0].Value, "ledger row should hold the returned access token")
				assert.False(t, tokens[0].Revoked)
				assert.False(t, tokens[0].Expired)
			})
		})

		t.Run("created user is enabled with user role", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				user, err := store.User().GetUserByEmail(t.Context(), registerParams.Email)
				require.NoError(t, err)
				assert.True(t, user.Enabled)
				assert.Equal(t, models.RoleUser, user.Role)
				assert.Equal(t, "alice", user.Username)
				assert.NotEqual(t, registerParams.Password, user.HashedPassword, "password must be stored hashed")
			})
		})

		t.Run("password mismatch is bad request", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				p := registerParams
				p.RepeatedPassword = "different1"

				_, err := s.Register(t.Context(), p)
				require.Error(t, err)
				assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
			})
		})

		t.Run("short password is bad request", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				p := registerParams
				p.Password, p.RepeatedPassword = "short", "short"

				_, err := s.Register(t.Context(), p)
				require.Error(t, err)
				assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
			})
		})

		t.Run("duplicate email is conflict", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				p := registerParams
				p.Username = "otheruser"
				_, err = s.Register(t.Context(), p)

				require.Error(t, err)
				assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
				assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
			})
		})

		t.Run("duplicate username is conflict", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				p := registerParams
				p.Email = "other@x.com"
				_, err = s.Register(t.Context(), p)

				require.Error(t, err)
				assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
				assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("rotates the session", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				first, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				second, err := s.Login(t.Context(), registerParams.Email, registerParams.Password)
				require.NoError(t, err)
				assert.NotEqual(t, first.Access.Value, second.Access.Value)

				tokens := usableTokens(t, store, registerParams.Email)
				require.Len(t, tokens, 1, "previous usable rows must be superseded")
				assert.Equal(t, second.Access.Value, tokens[0].Value)

				// The superseded row must be dead on both flags
				old, err := store.Token().GetByValue(t.Context(), first.Access.Value)
				require.NoError(t, err)
				assert.True(t, old.Revoked)
				assert.True(t, old.Expired)
			})
		})

		t.Run("unknown email is unauthorized", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Login(t.Context(), "nobody@x.com", "whatever1")
				require.Error(t, err)
				assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
			})
		})

		t.Run("wrong password is unauthorized", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				_, err = s.Login(t.Context(), registerParams.Email, "wrongpassword")
				require.Error(t, err)
				assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
			})
		})

		// Rotation races run on the pool, not a single rolled back
		// transaction: the serialization happens between transactions
		t.Run("concurrent logins leave one usable row", func(t *testing.T) {
			store := postgres.NewStorage(pg.Pool)
			s, err := NewService(Config{SecretKey: "test-secret-key"}, store)
			require.NoError(t, err)

			p := registerParams
			p.Email = "race@x.com"
			p.Username = "racer"
			_, err = s.Register(t.Context(), p)
			require.NoError(t, err)

			const logins = 4
			errs := make([]error, logins)
			var wg sync.WaitGroup
			for i := range errs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, errs[i] = s.Login(t.Context(), p.Email, p.Password)
				}()
			}
			wg.Wait()

			for i, err := range errs {
				require.NoErrorf(t, err, "login %d should not fail", i)
			}

			tokens := usableTokens(t, store, p.Email)
			require.Len(t, tokens, 1, "racing logins must not leave extra usable rows")
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("reissues access and keeps the refresh token", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				got, err := s.Refresh(t.Context(), "Bearer "+pair.Refresh.Value)
				require.NoError(t, err)

				assert.NotEqual(t, pair.Access.Value, got.Access.Value, "access token should be reissued")
				assert.Equal(t, pair.Refresh.Value, got.Refresh.Value, "refresh token must be returned byte-identical")

				tokens := usableTokens(t, store, registerParams.Email)
				require.Len(t, tokens, 1)
				assert.Equal(t, got.Access.Value, tokens[0].Value)

				old, err := store.Token().GetByValue(t.Context(), pair.Access.Value)
				require.NoError(t, err)
				assert.False(t, old.Usable(), "previous access row must be superseded")
			})
		})

		t.Run("rotates refresh when configured", func(t *testing.T) {
			withService(t, Config{RotateRefresh: true}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				got, err := s.Refresh(t.Context(), "Bearer "+pair.Refresh.Value)
				require.NoError(t, err)
				assert.NotEqual(t, pair.Refresh.Value, got.Refresh.Value)
			})
		})

		t.Run("missing header is unauthorized", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Refresh(t.Context(), "")
				require.Error(t, err)
				assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
			})
		})

		t.Run("non bearer scheme is unauthorized", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Refresh(t.Context(), "Basic dXNlcjpwYXNz")
				require.Error(t, err)
				assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
			})
		})

		t.Run("access token is not a refresh token", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), "Bearer "+pair.Access.Value)
				require.Error(t, err)
				assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
			})
		})

		t.Run("expired refresh token is unauthorized", func(t *testing.T) {
			withService(t, Config{RefreshTokenTTL: -time.Hour}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), "Bearer "+pair.Refresh.Value)
				require.Error(t, err)
				assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
			})
		})

		t.Run("tampered refresh token is unauthorized", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				other, err := NewService(Config{SecretKey: "other-key"}, store)
				require.NoError(t, err)

				pair, err := other.Register(t.Context(), registerParams)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), "Bearer "+pair.Refresh.Value)
				require.Error(t, err)
				assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revokes the presented token", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				err = s.Logout(t.Context(), "Bearer "+pair.Access.Value)
				require.NoError(t, err)

				token, err := store.Token().GetByValue(t.Context(), pair.Access.Value)
				require.NoError(t, err)
				assert.True(t, token.Revoked)
				assert.True(t, token.Expired)
			})
		})

		t.Run("second logout is a no-op", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				require.NoError(t, s.Logout(t.Context(), "Bearer "+pair.Access.Value))
				require.NoError(t, s.Logout(t.Context(), "Bearer "+pair.Access.Value), "already revoked token must not error")
			})
		})

		t.Run("missing header is a no-op", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				require.NoError(t, s.Logout(t.Context(), ""))
			})
		})

		t.Run("unknown token is a no-op", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				require.NoError(t, s.Logout(t.Context(), "Bearer some-unknown-token"))
			})
		})
	})

	t.Run("Identify", func(t *testing.T) {
		request := func(t *testing.T, token string) *http.Request {
			req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/courses", nil)
			require.NoError(t, err)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			return req
		}

		t.Run("usable token authenticates", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				user, err := s.Identify(t.Context(), request(t, pair.Access.Value))
				require.NoError(t, err)
				assert.Equal(t, registerParams.Email, user.Email)
			})
		})

		t.Run("ledger wins over signature", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				// Still cryptographically valid, but the row is revoked
				require.NoError(t, s.Logout(t.Context(), "Bearer "+pair.Access.Value))

				_, err = s.Identify(t.Context(), request(t, pair.Access.Value))
				require.Error(t, err, "revoked ledger row must not authenticate")
			})
		})

		t.Run("expiry wins over ledger", func(t *testing.T) {
			withService(t, Config{AccessTokenTTL: -time.Minute}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				// The ledger row is usable but the signature is expired
				tokens := usableTokens(t, store, registerParams.Email)
				require.Len(t, tokens, 1)

				_, err = s.Identify(t.Context(), request(t, pair.Access.Value))
				require.Error(t, err, "expired signature must not authenticate")
			})
		})

		t.Run("refresh token does not authenticate", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				pair, err := s.Register(t.Context(), registerParams)
				require.NoError(t, err)

				_, err = s.Identify(t.Context(), request(t, pair.Refresh.Value))
				require.Error(t, err)
			})
		})

		t.Run("no header is anonymous", func(t *testing.T) {
			withService(t, Config{}, func(s *Service, store repository.Storage) {
				_, err := s.Identify(t.Context(), request(t, ""))
				require.Error(t, err)
			})
		})
	})
}
