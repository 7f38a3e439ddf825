package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/config"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/service"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error)
}

// AuthService - вход по логину/паролю с защитой от перебора: счётчик
// неудачных попыток живёт в Redis, после превышения лимита аккаунт
// блокируется на LockoutDuration.
type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	authConfig config.AuthConfig
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	authConfig config.AuthConfig,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		authConfig: authConfig,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, payload.Username)
	if _, err := s.cacheRepo.Get(ctx, lockoutKey); err == nil {
		s.logger.Warn("попытка входа в заблокированный аккаунт",
			zap.String("username", payload.Username))
		return nil, apperrors.ErrTooManyAttempts
	} else if !errors.Is(err, redis.Nil) {
		// Redis недоступен - вход не блокируем, только логируем.
		s.logger.Error("не удалось проверить блокировку аккаунта", zap.Error(err))
	}

	user, err := s.userRepo.FindUserByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.registerFailedAttempt(ctx, payload.Username)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		s.registerFailedAttempt(ctx, payload.Username)
		return nil, apperrors.ErrInvalidCredentials
	}

	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, payload.Username)
	if err := s.cacheRepo.Del(ctx, attemptsKey); err != nil {
		s.logger.Warn("не удалось сбросить счётчик попыток входа", zap.Error(err))
	}

	return s.issueTokens(user)
}

// registerFailedAttempt увеличивает счётчик неудач и при превышении лимита
// ставит блокировку. Ошибки кеша не всплывают: отказ Redis не должен
// превращаться в отказ аутентификации.
func (s *AuthService) registerFailedAttempt(ctx context.Context, username string) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, username)

	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Error("не удалось увеличить счётчик попыток входа", zap.Error(err))
		return
	}

	if attempts == 1 {
		if _, err := s.cacheRepo.Expire(ctx, attemptsKey, s.authConfig.LockoutDuration); err != nil {
			s.logger.Warn("не удалось выставить TTL счётчика попыток", zap.Error(err))
		}
	}

	if attempts >= int64(s.authConfig.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, username)
		if err := s.cacheRepo.Set(ctx, lockoutKey, "locked", s.authConfig.LockoutDuration); err != nil {
			s.logger.Error("не удалось заблокировать аккаунт", zap.Error(err))
			return
		}
		s.logger.Warn("аккаунт заблокирован из-за перебора пароля",
			zap.String("username", username),
			zap.Int64("attempts", attempts))
	}
}

func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrInvalidToken
	}

	// Клеймы могли устареть (смена роли, удаление аккаунта) - перечитываем.
	user, err := s.userRepo.FindUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *entities.User) (*dto.TokenPairDTO, error) {
	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.Username, user.Role, user.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("не удалось сгенерировать токены: %w", err)
	}

	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *mapUserToDTO(user),
	}, nil
}

func mapUserToDTO(u *entities.User) *dto.UserDTO {
	return &dto.UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		Role:           u.Role,
		DepartmentID:   u.DepartmentID,
		DepartmentName: u.DepartmentName,
		CreatedAt:      u.CreatedAt.Format(time.RFC3339),
	}
}
