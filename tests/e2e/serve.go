package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/amezhin/eduseek/internal/handlers"
	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/repository"
	"github.com/amezhin/eduseek/internal/repository/postgres"
	"github.com/amezhin/eduseek/internal/service/auth"
	"github.com/amezhin/eduseek/internal/service/course"
	"github.com/amezhin/eduseek/internal/service/image"
	"github.com/amezhin/eduseek/internal/service/lyceum"
	"github.com/amezhin/eduseek/internal/service/user"
	"github.com/amezhin/eduseek/internal/testutil"
)

type Services struct {
	Storage repository.Storage
	Auth    *auth.Service
	Lyceums *lyceum.Service
	Courses *course.Service
	Images  *image.Service
	Profile *user.Service
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, s Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		authService, err := auth.NewService(auth.Config{SecretKey: "test-secret"}, storage)
		require.NoError(t, err, "auth service should be created without errors")

		services := Services{
			Storage: storage,
			Auth:    authService,
			Lyceums: lyceum.NewService(storage),
			Courses: course.NewService(storage),
			Images:  image.NewService(storage),
			Profile: user.NewService(auth.DefaultHasher, storage),
		}

		router := handlers.NewRouter(
			services.Auth,
			services.Lyceums,
			services.Courses,
			services.Images,
			services.Profile,
			logger.NewNoOpLogger(),
		)

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, services)
	})
}
