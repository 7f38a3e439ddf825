package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/pkg/config"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/service"
)

func newAuthFixture(t *testing.T) (*fakeUserRepo, *fakeCacheRepo, AuthServiceInterface, service.JWTService) {
	t.Helper()

	logger := zap.NewNop()
	userRepo := newFakeUserRepo()
	cacheRepo := newFakeCacheRepo()
	jwtSvc := service.NewJWTService("test-secret", time.Hour, 24*time.Hour, logger)

	authCfg := config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute}
	authSvc := NewAuthService(userRepo, cacheRepo, jwtSvc, authCfg, logger)

	return userRepo, cacheRepo, authSvc, jwtSvc
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, password, role string, deptID uint64) entities.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return repo.put(entities.User{
		Email:        username + "@example.com",
		Username:     username,
		Password:     string(hash),
		Role:         role,
		DepartmentID: deptID,
	})
}

func TestLogin(t *testing.T) {
	userRepo, _, authSvc, jwtSvc := newAuthFixture(t)
	seedUser(t, userRepo, "petrov", "secret123", constants.RoleUser, 1)

	res, err := authSvc.Login(context.Background(), dto.LoginDTO{Username: "petrov", Password: "secret123"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "petrov", res.User.Username)

	claims, err := jwtSvc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleUser, claims.Role)
	assert.False(t, claims.IsRefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo, _, authSvc, _ := newAuthFixture(t)
	seedUser(t, userRepo, "petrov", "secret123", constants.RoleUser, 1)

	_, err := authSvc.Login(context.Background(), dto.LoginDTO{Username: "petrov", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

// Неизвестный логин и неверный пароль неразличимы для клиента.
func TestLogin_UnknownUser(t *testing.T) {
	_, _, authSvc, _ := newAuthFixture(t)

	_, err := authSvc.Login(context.Background(), dto.LoginDTO{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_LockoutAfterMaxAttempts(t *testing.T) {
	userRepo, cacheRepo, authSvc, _ := newAuthFixture(t)
	seedUser(t, userRepo, "petrov", "secret123", constants.RoleUser, 1)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := authSvc.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "wrong"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	// Лимит исчерпан: даже верный пароль больше не пускает.
	_, err := authSvc.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts)

	_, ok := cacheRepo.data[fmt.Sprintf(constants.CacheKeyLockout, "petrov")]
	assert.True(t, ok, "ключ блокировки должен быть установлен")
}

func TestLogin_ResetsAttemptsOnSuccess(t *testing.T) {
	userRepo, cacheRepo, authSvc, _ := newAuthFixture(t)
	seedUser(t, userRepo, "petrov", "secret123", constants.RoleUser, 1)

	ctx := context.Background()
	_, _ = authSvc.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "wrong"})

	_, err := authSvc.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "secret123"})
	require.NoError(t, err)

	_, ok := cacheRepo.data[fmt.Sprintf(constants.CacheKeyLoginAttempts, "petrov")]
	assert.False(t, ok, "счётчик попыток должен сброситься")
}

func TestRefresh(t *testing.T) {
	userRepo, _, authSvc, _ := newAuthFixture(t)
	seedUser(t, userRepo, "petrov", "secret123", constants.RoleUser, 1)

	ctx := context.Background()
	pair, err := authSvc.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := authSvc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

// Access-токен нельзя использовать как refresh.
func TestRefresh_RejectsAccessToken(t *testing.T) {
	userRepo, _, authSvc, _ := newAuthFixture(t)
	seedUser(t, userRepo, "petrov", "secret123", constants.RoleUser, 1)

	ctx := context.Background()
	pair, err := authSvc.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "secret123"})
	require.NoError(t, err)

	_, err = authSvc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefresh_DeletedUser(t *testing.T) {
	userRepo, _, authSvc, _ := newAuthFixture(t)
	user := seedUser(t, userRepo, "petrov", "secret123", constants.RoleUser, 1)

	ctx := context.Background()
	pair, err := authSvc.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, userRepo.DeleteUser(ctx, nil, user.ID))

	_, err = authSvc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
