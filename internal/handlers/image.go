package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/handlers/render"
	"github.com/amezhin/eduseek/internal/handlers/userctx"
	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/models"
	"github.com/amezhin/eduseek/internal/service/image"
)

type imageResponse struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	OwnerKind   string    `json:"ownerKind"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	URL         string    `json:"url"`
}

func imageToResponse(img models.Image) imageResponse {
	return imageResponse{
		ID:          img.ID,
		CreatedAt:   img.CreatedAt,
		OwnerKind:   img.OwnerKind,
		OwnerID:     img.OwnerID,
		Filename:    img.Filename,
		ContentType: img.ContentType,
		SizeBytes:   img.SizeBytes,
		URL:         img.URL,
	}
}

// handleAttachImage serves both owner namespaces: the owner kind is fixed
// by the route, the owner id comes from the path
func handleAttachImage(ownerKind string, images imageService, l logger.Logger) http.Handler {
	type request struct {
		Filename    string `json:"filename" validate:"required,max=255"`
		ContentType string `json:"contentType" validate:"required,max=100"`
		SizeBytes   int64  `json:"sizeBytes" validate:"gte=0"`
		URL         string `json:"url" validate:"required,url"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, apperrors.Unauthorized("Authentication required"))
			return
		}

		ownerID, err := pathID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		img, err := images.Attach(r.Context(), actor, image.AttachParams{
			OwnerKind:   ownerKind,
			OwnerID:     ownerID,
			Filename:    data.Filename,
			ContentType: data.ContentType,
			SizeBytes:   data.SizeBytes,
			URL:         data.URL,
		})
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSONStatus(w, imageToResponse(img), http.StatusCreated)
	})
}

func handleListImages(ownerKind string, images imageService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := pathID(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		found, err := images.ListByOwner(r.Context(), ownerKind, ownerID)
		if err != nil {
			render.Error(w, err)
			return
		}

		resp := make([]imageResponse, 0, len(found))
		for _, img := range found {
			resp = append(resp, imageToResponse(img))
		}
		render.JSON(w, resp)
	})
}
