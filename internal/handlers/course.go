package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/handlers/render"
	"github.com/amezhin/eduseek/internal/handlers/userctx"
	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
)

type courseResponse struct {
	ID          uuid.UUID       `json:"id"`
	LyceumID    uuid.UUID       `json:"lyceumId"`
	CreatedAt   time.Time       `json:"createdAt"`
	Title       string          `json:"title"`
	Subject     string          `json:"subject"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Weeks       int             `json:"weeks"`
}

func courseToResponse(c models.Course) courseResponse {
	return courseResponse{
		ID:          c.ID,
		LyceumID:    c.LyceumID,
		CreatedAt:   c.CreatedAt,
		Title:       c.Title,
		Subject:     c.Subject,
		Description: c.Description,
		Price:       c.Price,
		Weeks:       c.Weeks,
	}
}

func handleListCourses(courses courseService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		opts := repository.ListCoursesOpts{
			Subject: q.Get("subject"),
		}

		if v, ok := firstValue(q, "lyceum_id"); ok {
			id, err := uuid.Parse(v)
			if err != nil {
				render.Error(w, apperrors.BadRequest("Invalid lyceum_id"))
				return
			}
			opts.LyceumID = &id
		}

		if v, ok := firstValue(q, "max_price"); ok {
			price, err := decimal.NewFromString(v)
			if err != nil || price.IsNegative() {
				render.Error(w, apperrors.BadRequest("Invalid max_price"))
				return
			}
			opts.MaxPrice = &price
		}

		if err := parseListWindow(q, &opts.Limit, &opts.Offset); err != nil {
			render.Error(w, err)
			return
		}

		found, err := courses.List(r.Context(), opts)
		if err != nil {
			l.Error("list courses failed", "error", err)
			render.Error(w, err)
			return
		}

		resp := make([]courseResponse, 0, len(found))
		for _, c := range found {
			resp = append(resp, courseToResponse(c))
		}
		render.JSON(w, resp)
	})
}

func handleGetCourse(courses courseService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		course, err := courses.Get(r.Context(), id)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, courseToResponse(course))
	})
}

func handleCreateCourse(courses courseService, l logger.Logger) http.Handler {
	type request struct {
		LyceumID    uuid.UUID       `json:"lyceumId" validate:"required"`
		Title       string          `json:"title" validate:"required,max=200"`
		Subject     string          `json:"subject" validate:"required,max=100"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Weeks       int             `json:"weeks" validate:"gte=0"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, apperrors.Unauthorized("Authentication required"))
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		course, err := courses.Create(r.Context(), actor, repository.CreateCourseParams{
			LyceumID:    data.LyceumID,
			Title:       data.Title,
			Subject:     data.Subject,
			Description: data.Description,
			Price:       data.Price,
			Weeks:       data.Weeks,
		})
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSONStatus(w, courseToResponse(course), http.StatusCreated)
	})
}

func handleUpdateCourse(courses courseService, l logger.Logger) http.Handler {
	type request struct {
		Title       *string          `json:"title" validate:"omitempty,max=200"`
		Subject     *string          `json:"subject" validate:"omitempty,max=100"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		Weeks       *int             `json:"weeks" validate:"omitempty,gte=0"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, apperrors.Unauthorized("Authentication required"))
			return
		}

		id, err := pathID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		course, err := courses.Update(r.Context(), actor, id, repository.UpdateCourseParams{
			Title:       data.Title,
			Subject:     data.Subject,
			Description: data.Description,
			Price:       data.Price,
			Weeks:       data.Weeks,
		})
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, courseToResponse(course))
	})
}
