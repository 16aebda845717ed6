package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/grocerydev/grocery-shop/internal/domain/models"
	"github.com/grocerydev/grocery-shop/internal/service"
	"github.com/grocerydev/grocery-shop/internal/storage"
)

const testJWTSecret = "test-secret"

func newAuthService(t *testing.T, userRepo storage.UserStorage) service.AuthService {
	t.Setenv("JWT_SECRET", testJWTSecret)
	return service.NewAuthService(testLogger(), userRepo, time.Hour)
}

func parseToken(t *testing.T, token string) jwt.MapClaims {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	assert.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	return claims
}

func TestAuthService_Register_NewUser(t *testing.T) {
	userRepo := newFakeUserRepo()
	authSvc := newAuthService(t, userRepo)

	token, err := authSvc.Register(context.Background(), "test@example.com", "password123", "Test", "User")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims := parseToken(t, token)
	assert.Equal(t, "test@example.com", claims["email"])

	stored, err := userRepo.GetByEmail(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.NotEqual(t, []byte("password123"), stored.PassHash, "password must never be stored as-is")
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PassHash, []byte("password123")))
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	userRepo := newFakeUserRepo()
	authSvc := newAuthService(t, userRepo)

	_, err := authSvc.Register(context.Background(), "test@example.com", "password123", "Test", "User")
	assert.NoError(t, err)

	_, err = authSvc.Register(context.Background(), "test@example.com", "otherpassword", "Other", "User")
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
}

func TestAuthService_Login_Success(t *testing.T) {
	userRepo := newFakeUserRepo()
	authSvc := newAuthService(t, userRepo)

	passHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	userRepo.users[1] = &models.User{ID: 1, Email: "test@example.com", PassHash: passHash}

	token, err := authSvc.Login(context.Background(), "test@example.com", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims := parseToken(t, token)
	assert.Equal(t, "test@example.com", claims["email"])
	assert.Equal(t, "1", claims["sub"])
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	userRepo := newFakeUserRepo()
	authSvc := newAuthService(t, userRepo)

	passHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	userRepo.users[1] = &models.User{ID: 1, Email: "test@example.com", PassHash: passHash}

	_, err = authSvc.Login(context.Background(), "test@example.com", "wrongpassword")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	authSvc := newAuthService(t, newFakeUserRepo())

	// an unknown email must look exactly like a wrong password
	_, err := authSvc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
