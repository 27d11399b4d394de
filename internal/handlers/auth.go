package handlers

import (
	"net/http"

	"github.com/amezhin/eduseek/internal/handlers/render"
	"github.com/amezhin/eduseek/internal/logger"
	authservice "github.com/amezhin/eduseek/internal/service/auth"
)

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func handleRegister(auth authService, l logger.Logger) http.Handler {
	type request struct {
		FirstName        string `json:"firstName" validate:"required,max=100"`
		LastName         string `json:"lastName" validate:"required,max=100"`
		Email            string `json:"email" validate:"required,email"`
		Username         string `json:"username" validate:"required,min=2,max=50"`
		Password         string `json:"password" validate:"required"`
		RepeatedPassword string `json:"repeatedPassword" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := auth.Register(r.Context(), authservice.RegisterParams{
			FirstName:        data.FirstName,
			LastName:         data.LastName,
			Email:            data.Email,
			Username:         data.Username,
			Password:         data.Password,
			RepeatedPassword: data.RepeatedPassword,
		})
		if err != nil {
			l.Info("registration rejected", "error", err)
			render.Error(w, err)
			return
		}

		render.JSON(w, tokenPairResponse{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleAuthenticate(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := auth.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			l.Info("login rejected", "error", err)
			render.Error(w, err)
			return
		}

		render.JSON(w, tokenPairResponse{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleRefreshToken(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pair, err := auth.Refresh(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			l.Info("refresh rejected", "error", err)
			render.Error(w, err)
			return
		}

		render.JSON(w, tokenPairResponse{
			AccessToken:  pair.Access.Value,
			RefreshToken: pair.Refresh.Value,
		})
	})
}

func handleLogout(auth authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Logout(r.Context(), r.Header.Get("Authorization")); err != nil {
			l.Error("logout failed", "error", err)
			render.Error(w, err)
			return
		}

		render.JSON(w, response{Message: "Logged out"})
	})
}
