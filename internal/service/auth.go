package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/security"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password;
// callers cannot tell which field mismatched.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	Register(ctx context.Context, email, password, name, surname string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type authService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokenTTL time.Duration) AuthService {
	return &authService{
		log:      log,
		userRepo: userRepo,
		tokenTTL: tokenTTL,
	}
}

// Register creates the user with a bcrypt hash of the password and returns a
// token for the fresh account. A taken email surfaces as storage.ErrEmailTaken.
func (a *authService) Register(ctx context.Context, email, password, name, surname string) (string, error) {
	const op = "auth.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("registering user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.Create(ctx, &models.User{
		Email:    email,
		PassHash: passHash,
		Name:     name,
		Surname:  surname,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			logger.Warn("email already registered")
			return "", fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	token, err := security.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID))
	return token, nil
}

// Login checks the credentials against the stored bcrypt hash.
func (a *authService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}
