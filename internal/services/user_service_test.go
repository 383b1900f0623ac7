package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-app/internal/models"
	"go-todo-app/internal/repositories"
	"go-todo-app/internal/services"
	"go-todo-app/testutil"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := services.NewUserService(repositories.NewUserRepository(db))
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, models.UserRegisterRequest{
		Username: "newuser",
		Email:    "NewUser@Example.com ",
		Password: "newpassword",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "newuser@example.com", user.Email)
	assert.Empty(t, user.PasswordHash, "Password hash should not be returned")

	t.Run("Duplicate email", func(t *testing.T) {
		_, err := svc.RegisterUser(ctx, models.UserRegisterRequest{
			Username: "another",
			Email:    "newuser@example.com",
			Password: "newpassword",
		})
		assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)
	})

	t.Run("Valid credentials", func(t *testing.T) {
		found, err := svc.AuthenticateUser(ctx, models.UserLoginRequest{Email: "newuser@example.com", Password: "newpassword"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Empty(t, found.PasswordHash)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, err := svc.AuthenticateUser(ctx, models.UserLoginRequest{Email: "newuser@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, err := svc.AuthenticateUser(ctx, models.UserLoginRequest{Email: "nobody@example.com", Password: "newpassword"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}

func TestJWTService(t *testing.T) {
	svc := services.NewJWTService("secret", time.Hour)

	token, err := svc.GenerateToken("user-1", "u@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "u@example.com", claims.Email)

	t.Run("Other secret is rejected", func(t *testing.T) {
		_, err := services.NewJWTService("other", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired token is rejected", func(t *testing.T) {
		expired, err := services.NewJWTService("secret", -time.Minute).GenerateToken("user-1", "u@example.com")
		require.NoError(t, err)
		_, err = svc.ValidateToken(expired)
		assert.Error(t, err)
	})

	t.Run("Garbage is rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("invalid.jwt.token")
		assert.Error(t, err)
	})
}
