package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/minibank/internal/apperrors"
	"github.com/nkiryanov/minibank/internal/handlers/render"
	"github.com/nkiryanov/minibank/internal/logger"
	"github.com/nkiryanov/minibank/internal/service/user"
)

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Login       string `json:"login" validate:"required,min=2,max=50"`
		Password    string `json:"password" validate:"required,min=8"`
		FullName    string `json:"full_name" validate:"max=200"`
		AccountType string `json:"account_type" validate:"omitempty,oneof=personal business"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Register(r.Context(), user.CreateUserParams{
			Username:    data.Login,
			Password:    data.Password,
			FullName:    data.FullName,
			AccountType: data.AccountType,
		})

		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, response{Message: "User registered successfully"})
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			l.Error("Failed to register user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Login, data.Password)

		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, response{Message: "User logged in successfully"})
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusUnauthorized)
		default:
			l.Error("Failed to login user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		pair, err := authService.RefreshPair(r.Context(), refresh)

		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, response{Message: "Tokens refreshed successfully"})
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrRefreshTokenNotFound), errors.Is(err, apperrors.ErrRefreshTokenIsUsed):
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		default:
			l.Error("Failed to refresh tokens", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
