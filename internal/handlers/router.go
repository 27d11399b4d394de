package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/amezhin/eduseek/internal/handlers/middleware"
	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
	authservice "github.com/amezhin/eduseek/internal/service/auth"
	"github.com/amezhin/eduseek/internal/service/image"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// route pairs a mux pattern with the access policy it requires.
// Every route of the service is listed here, there is no other place
// where protection is decided.
type route struct {
	pattern string
	policy  middleware.Policy
	handler http.Handler
}

func NewRouter(
	auth authService,
	lyceums lyceumService,
	courses courseService,
	images imageService,
	profile profileService,
	l logger.Logger,
) http.Handler {
	routes := []route{
		{"POST /auth/register", middleware.PolicyPublic, handleRegister(auth, l)},
		{"POST /auth/authenticate", middleware.PolicyPublic, handleAuthenticate(auth, l)},
		{"POST /auth/refresh-token", middleware.PolicyPublic, handleRefreshToken(auth, l)},
		{"POST /auth/logout", middleware.PolicyPublic, handleLogout(auth, l)},

		{"GET /lyceums", middleware.PolicyPublic, handleListLyceums(lyceums, l)},
		{"GET /lyceums/{id}", middleware.PolicyPublic, handleGetLyceum(lyceums, l)},
		{"POST /lyceums", middleware.PolicyPrivileged, handleCreateLyceum(lyceums, l)},
		{"PATCH /lyceums/{id}", middleware.PolicyAuthenticated, handleUpdateLyceum(lyceums, l)},

		{"GET /courses", middleware.PolicyPublic, handleListCourses(courses, l)},
		{"GET /courses/{id}", middleware.PolicyPublic, handleGetCourse(courses, l)},
		{"POST /courses", middleware.PolicyAuthenticated, handleCreateCourse(courses, l)},
		{"PATCH /courses/{id}", middleware.PolicyAuthenticated, handleUpdateCourse(courses, l)},

		{"GET /lyceums/{id}/images", middleware.PolicyPublic, handleListImages(models.ImageOwnerLyceum, images, l)},
		{"POST /lyceums/{id}/images", middleware.PolicyAuthenticated, handleAttachImage(models.ImageOwnerLyceum, images, l)},
		{"GET /courses/{id}/images", middleware.PolicyPublic, handleListImages(models.ImageOwnerCourse, images, l)},
		{"POST /courses/{id}/images", middleware.PolicyAuthenticated, handleAttachImage(models.ImageOwnerCourse, images, l)},

		{"GET /profile", middleware.PolicyAuthenticated, handleGetProfile(profile, l)},
		{"PATCH /profile", middleware.PolicyAuthenticated, handleUpdateProfile(profile, l)},
		{"POST /profile/password", middleware.PolicyAuthenticated, handleChangePassword(profile, l)},
	}

	mux := http.NewServeMux()
	for _, rt := range routes {
		mux.Handle(rt.pattern, middleware.RequirePolicy(rt.policy)(rt.handler))
	}

	return chain(mux,
		middleware.LoggerMiddleware(l),
		middleware.Gatekeeper(auth),
	)
}

type authService interface {
	Register(ctx context.Context, p authservice.RegisterParams) (models.TokenPair, error)
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh and Logout read the raw Authorization header value
	Refresh(ctx context.Context, authorization string) (models.TokenPair, error)
	Logout(ctx context.Context, authorization string) error

	// Identify returns the user behind a request's bearer token.
	// Used by the gatekeeper middleware.
	Identify(ctx context.Context, r *http.Request) (models.User, error)
}

type lyceumService interface {
	List(ctx context.Context, opts repository.ListLyceumsOpts) ([]models.Lyceum, error)
	Get(ctx context.Context, id uuid.UUID) (models.Lyceum, error)
	Create(ctx context.Context, arg repository.CreateLyceumParams) (models.Lyceum, error)
	Update(ctx context.Context, actor models.User, id uuid.UUID, arg repository.UpdateLyceumParams) (models.Lyceum, error)
}

type courseService interface {
	List(ctx context.Context, opts repository.ListCoursesOpts) ([]models.Course, error)
	Get(ctx context.Context, id uuid.UUID) (models.Course, error)
	Create(ctx context.Context, actor models.User, arg repository.CreateCourseParams) (models.Course, error)
	Update(ctx context.Context, actor models.User, id uuid.UUID, arg repository.UpdateCourseParams) (models.Course, error)
}

type imageService interface {
	Attach(ctx context.Context, actor models.User, arg image.AttachParams) (models.Image, error)
	ListByOwner(ctx context.Context, ownerKind string, ownerID uuid.UUID) ([]models.Image, error)
}

type profileService interface {
	Get(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName string, lastName string) (models.User, error)
	ChangePassword(ctx context.Context, actor models.User, current string, newPassword string) error
}
