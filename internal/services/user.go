package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type UserService struct {
	userRepo    repositories.UserRepositoryInterface
	deptRepo    repositories.DepartmentRepositoryInterface
	assetRepo   repositories.AssetRepositoryInterface
	requestRepo repositories.RequestRepositoryInterface
	issueRepo   repositories.IssueReportRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	txManager   repositories.TxManagerInterface
	logger      *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	deptRepo repositories.DepartmentRepositoryInterface,
	assetRepo repositories.AssetRepositoryInterface,
	requestRepo repositories.RequestRepositoryInterface,
	issueRepo repositories.IssueReportRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		userRepo:    userRepo,
		deptRepo:    deptRepo,
		assetRepo:   assetRepo,
		requestRepo: requestRepo,
		issueRepo:   issueRepo,
		cacheRepo:   cacheRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	users, total, err := s.userRepo.GetUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		result = append(result, *mapUserToDTO(&users[i]))
	}
	return result, total, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapUserToDTO(user), nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	dept, err := s.deptRepo.FindDepartment(ctx, payload.DepartmentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewInvalidInputError("подразделение %d не существует", payload.DepartmentID)
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("не удалось захешировать пароль: %w", err)
	}

	newID, err := s.userRepo.CreateUser(ctx, entities.User{
		Email:          payload.Email,
		Username:       payload.Username,
		Password:       string(hash),
		Role:           payload.Role,
		DepartmentID:   dept.ID,
		DepartmentName: dept.Name,
	})
	if err != nil {
		return nil, err
	}

	// Новый HOD/админ меняет список получателей уведомлений - сбрасываем кеш.
	s.invalidateApproversCache(ctx, payload.Role)

	created, err := s.userRepo.FindUser(ctx, newID)
	if err != nil {
		return nil, err
	}
	return mapUserToDTO(created), nil
}

// DeleteUser удаляет аккаунт со всеми следами: заявки и отчёты удаляются,
// закреплённые активы возвращаются в Available (или остаются на
// обслуживании без держателя), уведомления снимает каскад БД.
// Всё - одной транзакцией: частично удалённый аккаунт хуже неудалённого.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	user, err := s.userRepo.FindUser(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.assetRepo.ReleaseAssetsOfUser(ctx, tx, id); err != nil {
			return fmt.Errorf("не удалось освободить активы сотрудника: %w", err)
		}
		if err := s.requestRepo.DeleteRequestsOfUser(ctx, tx, id); err != nil {
			return fmt.Errorf("не удалось удалить заявки сотрудника: %w", err)
		}
		if err := s.issueRepo.DeleteIssueReportsOfUser(ctx, tx, id); err != nil {
			return fmt.Errorf("не удалось удалить отчёты сотрудника: %w", err)
		}
		return s.userRepo.DeleteUser(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.invalidateApproversCache(ctx, user.Role)

	s.logger.Info("аккаунт удалён вместе со связанными записями",
		zap.Uint64("userId", id),
		zap.String("username", user.Username))
	return nil
}

// invalidateApproversCache инкрементирует поколение кеша согласующих.
// Админы входят в списки всех подразделений, поэтому точечный сброс
// одного ключа недостаточен - обесцениваются все поколением.
func (s *UserService) invalidateApproversCache(ctx context.Context, role string) {
	if role != constants.RoleHod && role != constants.RoleAdmin {
		return
	}
	if _, err := s.cacheRepo.Incr(ctx, constants.CacheKeyApproversVersion); err != nil {
		s.logger.Warn("не удалось обесценить кеш согласующих", zap.Error(err))
	}
}
