package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/grocerydev/grocery-shop/internal/service"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

// RegisterRequest is the payload for creating an account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Surname  string `json:"surname" validate:"required"`
}

// LoginRequest carries the credentials to verify
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse returns the issued JWT
type TokenResponse struct {
	Token string `json:"token"`
}

var validate = validator.New()

// RegisterHandler handles POST /api/register
func RegisterHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		token, err := authService.Register(r.Context(), req.Email, req.Password, req.Name, req.Surname)
		if err != nil {
			if errors.Is(err, storage.ErrEmailTaken) {
				logger.Warn("email already registered")
				http.Error(w, "email already registered", http.StatusBadRequest)
				return
			}
			logger.Error("registration failed", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(TokenResponse{Token: token}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// LoginHandler handles POST /api/login
func LoginHandler(log *slog.Logger, authService service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		token, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			// one answer for both unknown email and wrong password
			if errors.Is(err, service.ErrInvalidCredentials) {
				logger.Warn("invalid credentials")
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			logger.Error("login failed", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(TokenResponse{Token: token}); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
