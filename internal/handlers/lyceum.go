package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/handlers/render"
	"github.com/amezhin/eduseek/internal/handlers/userctx"
	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/repository"
)

type lyceumResponse struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
}

func lyceumToResponse(l models.Lyceum) lyceumResponse {
	return lyceumResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt,
		Name:        l.Name,
		City:        l.City,
		Address:     l.Address,
		Description: l.Description,
	}
}

// pathID parses the {id} wildcard of the matched route
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.KindBadRequest, "Invalid id in path", err)
	}
	return id, nil
}

func parseListWindow(q map[string][]string, limit *int, offset *int) error {
	if v, ok := firstValue(q, "limit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return apperrors.BadRequest("Invalid limit")
		}
		*limit = n
	}

	if v, ok := firstValue(q, "offset"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return apperrors.BadRequest("Invalid offset")
		}
		*offset = n
	}

	return nil
}

func firstValue(q map[string][]string, key string) (string, bool) {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func handleListLyceums(lyceums lyceumService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		opts := repository.ListLyceumsOpts{
			City:   q.Get("city"),
			Search: q.Get("search"),
		}
		if err := parseListWindow(q, &opts.Limit, &opts.Offset); err != nil {
			render.Error(w, err)
			return
		}

		found, err := lyceums.List(r.Context(), opts)
		if err != nil {
			l.Error("list lyceums failed", "error", err)
			render.Error(w, err)
			return
		}

		resp := make([]lyceumResponse, 0, len(found))
		for _, lyc := range found {
			resp = append(resp, lyceumToResponse(lyc))
		}
		render.JSON(w, resp)
	})
}

func handleGetLyceum(lyceums lyceumService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		lyceum, err := lyceums.Get(r.Context(), id)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, lyceumToResponse(lyceum))
	})
}

func handleCreateLyceum(lyceums lyceumService, l logger.Logger) http.Handler {
	type request struct {
		Name        string `json:"name" validate:"required,max=200"`
		City        string `json:"city" validate:"required,max=100"`
		Address     string `json:"address" validate:"max=300"`
		Description string `json:"description"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		lyceum, err := lyceums.Create(r.Context(), repository.CreateLyceumParams{
			Name:        data.Name,
			City:        data.City,
			Address:     data.Address,
			Description: data.Description,
		})
		if err != nil {
			l.Error("create lyceum failed", "error", err)
			render.Error(w, err)
			return
		}

		render.JSONStatus(w, lyceumToResponse(lyceum), http.StatusCreated)
	})
}

func handleUpdateLyceum(lyceums lyceumService, l logger.Logger) http.Handler {
	type request struct {
		Name        *string `json:"name" validate:"omitempty,max=200"`
		City        *string `json:"city" validate:"omitempty,max=100"`
		Address     *string `json:"address" validate:"omitempty,max=300"`
		Description *string `json:"description"`
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

		lyceum, err := lyceums.Update(r.Context(), actor, id, repository.UpdateLyceumParams{
			Name:        data.Name,
			City:        data.City,
			Address:     data.Address,
			Description: data.Description,
		})
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, lyceumToResponse(lyceum))
	})
}
