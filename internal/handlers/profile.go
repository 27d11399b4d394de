package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/handlers/render"
	"github.com/amezhin/eduseek/internal/handlers/userctx"
	"github.com/amezhin/eduseek/internal/logger"
	"github.com/amezhin/eduseek/internal/models"
)

type profileResponse struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	LyceumID  *uuid.UUID `json:"lyceumId,omitempty"`
}

func profileToResponse(u models.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		LyceumID:  u.LyceumID,
	}
}

func handleGetProfile(profile profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, apperrors.Unauthorized("Authentication required"))
			return
		}

		user, err := profile.Get(r.Context(), actor.ID)
		if err != nil {
			l.Error("get profile failed", "error", err)
			render.Error(w, err)
			return
		}

		render.JSON(w, profileToResponse(user))
	})
}

func handleUpdateProfile(profile profileService, l logger.Logger) http.Handler {
	type request struct {
		FirstName string `json:"firstName" validate:"required,max=100"`
		LastName  string `json:"lastName" validate:"required,max=100"`
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

		user, err := profile.UpdateProfile(r.Context(), actor.ID, data.FirstName, data.LastName)
		if err != nil {
			l.Error("update profile failed", "error", err)
			render.Error(w, err)
			return
		}

		render.JSON(w, profileToResponse(user))
	})
}

func handleChangePassword(profile profileService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required"`
	}

	type response struct {
		Message string `json:"message"`
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

		if err := profile.ChangePassword(r.Context(), actor, data.CurrentPassword, data.NewPassword); err != nil {
			l.Info("change password rejected", "error", err)
			render.Error(w, err)
			return
		}

		render.JSON(w, response{Message: "Password changed"})
	})
}
