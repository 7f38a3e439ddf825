package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/events"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/filestorage"
	"asset-system/pkg/qr"
	"asset-system/pkg/types"
)

type AssetServiceInterface interface {
	GetAssets(ctx context.Context, filter types.Filter) ([]dto.AssetDTO, uint64, error)
	GetMyAssets(ctx context.Context) ([]dto.AssetDTO, error)
	FindAsset(ctx context.Context, id uint64) (*dto.AssetDTO, error)
	CreateAsset(ctx context.Context, payload dto.CreateAssetDTO) (*dto.AssetDTO, error)
	UpdateAsset(ctx context.Context, id uint64, payload dto.UpdateAssetDTO) (*dto.AssetDTO, error)
	DeleteAsset(ctx context.Context, id uint64) error

	// Гарант назначения. Единственные точки, которые меняют статус актива
	// и ссылку держателя.
	TryAssign(ctx context.Context, q repositories.Querier, assetCode string, userID uint64, username string) (*entities.Asset, error)
	Unassign(ctx context.Context, id uint64) (*dto.AssetDTO, error)
	ResolveMaintenance(ctx context.Context, id uint64) (*dto.AssetDTO, error)
}

type AssetService struct {
	assetRepo repositories.AssetRepositoryInterface
	deptRepo  repositories.DepartmentRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	generator qr.GeneratorInterface
	storage   filestorage.FileStorageInterface
	bus       *eventbus.Bus
	logger    *zap.Logger
}

func NewAssetService(
	assetRepo repositories.AssetRepositoryInterface,
	deptRepo repositories.DepartmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	generator qr.GeneratorInterface,
	storage filestorage.FileStorageInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) AssetServiceInterface {
	return &AssetService{
		assetRepo: assetRepo,
		deptRepo:  deptRepo,
		userRepo:  userRepo,
		generator: generator,
		storage:   storage,
		bus:       bus,
		logger:    logger,
	}
}

// NewAssetCode выдаёт уникальный инвентарный код формата AST-<uuid>.
func NewAssetCode() string {
	return "AST-" + uuid.NewString()
}

func (s *AssetService) GetAssets(ctx context.Context, filter types.Filter) ([]dto.AssetDTO, uint64, error) {
	assets, total, err := s.assetRepo.GetAssets(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.AssetDTO, 0, len(assets))
	for i := range assets {
		result = append(result, *mapAssetToDTO(&assets[i]))
	}
	return result, total, nil
}

// GetMyAssets - активы, закреплённые за тем, кто спрашивает.
func (s *AssetService) GetMyAssets(ctx context.Context) ([]dto.AssetDTO, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	assets, err := s.assetRepo.FindAssetsByHolder(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.AssetDTO, 0, len(assets))
	for i := range assets {
		result = append(result, *mapAssetToDTO(&assets[i]))
	}
	return result, nil
}

func (s *AssetService) FindAsset(ctx context.Context, id uint64) (*dto.AssetDTO, error) {
	asset, err := s.assetRepo.FindAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAssetToDTO(asset), nil
}

func (s *AssetService) CreateAsset(ctx context.Context, payload dto.CreateAssetDTO) (*dto.AssetDTO, error) {
	if _, err := s.deptRepo.FindDepartment(ctx, payload.DepartmentID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewInvalidInputError("подразделение %d не существует", payload.DepartmentID)
		}
		return nil, err
	}

	asset := entities.Asset{
		Name:         payload.Name,
		Type:         payload.Type,
		Brand:        payload.Brand,
		Model:        payload.Model,
		AssetCode:    NewAssetCode(),
		Status:       constants.AssetAvailable,
		DepartmentID: payload.DepartmentID,
	}

	if payload.DateOfBuying != "" {
		t, err := time.Parse("2006-01-02", payload.DateOfBuying)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("неверный формат даты покупки: %s", payload.DateOfBuying)
		}
		asset.DateOfBuying = &t
	}

	// QR - побочный артефакт: его отсутствие не блокирует создание записи.
	if qrPath, err := s.renderQR(asset.Name, asset.AssetCode); err != nil {
		s.logger.Warn("не удалось сгенерировать QR-код актива",
			zap.String("assetCode", asset.AssetCode), zap.Error(err))
	} else {
		asset.QRCode = &qrPath
	}

	newID, err := s.assetRepo.CreateAsset(ctx, asset)
	if err != nil {
		return nil, err
	}

	created, err := s.assetRepo.FindAsset(ctx, newID)
	if err != nil {
		return nil, err
	}
	return mapAssetToDTO(created), nil
}

func (s *AssetService) renderQR(assetName, assetCode string) (string, error) {
	png, err := s.generator.Render(assetName, assetCode)
	if err != nil {
		return "", err
	}
	fileName := fmt.Sprintf("%s.png", strings.ToLower(assetCode))
	return s.storage.Save(fileName, png)
}

func (s *AssetService) UpdateAsset(ctx context.Context, id uint64, payload dto.UpdateAssetDTO) (*dto.AssetDTO, error) {
	existing, err := s.assetRepo.FindAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Name.Valid {
		existing.Name = payload.Name.String
	}
	if payload.Type.Valid {
		existing.Type = payload.Type.String
	}
	if payload.Brand.Valid {
		existing.Brand = payload.Brand.String
	}
	if payload.Model.Valid {
		existing.Model = payload.Model.String
	}
	if payload.DateOfBuying.Valid {
		t, err := time.Parse("2006-01-02", payload.DateOfBuying.String)
		if err != nil {
			return nil, apperrors.NewInvalidInputError("неверный формат даты покупки: %s", payload.DateOfBuying.String)
		}
		existing.DateOfBuying = &t
	}
	if payload.DepartmentID.Valid {
		if _, err := s.deptRepo.FindDepartment(ctx, payload.DepartmentID.Uint64); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewInvalidInputError("подразделение %d не существует", payload.DepartmentID.Uint64)
			}
			return nil, err
		}
		existing.DepartmentID = payload.DepartmentID.Uint64
	}

	if err := s.assetRepo.UpdateAsset(ctx, id, *existing); err != nil {
		return nil, err
	}

	updated, err := s.assetRepo.FindAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAssetToDTO(updated), nil
}

func (s *AssetService) DeleteAsset(ctx context.Context, id uint64) error {
	existing, err := s.assetRepo.FindAsset(ctx, id)
	if err != nil {
		return err
	}

	if err := s.assetRepo.DeleteAsset(ctx, id); err != nil {
		return err
	}

	// Осиротевший QR-файл подчищаем после удаления записи; сбой здесь
	// уже ни на что не влияет.
	if existing.QRCode != nil {
		if err := s.storage.Delete(*existing.QRCode); err != nil {
			s.logger.Warn("не удалось удалить QR-файл актива",
				zap.String("assetCode", existing.AssetCode), zap.Error(err))
		}
	}
	return nil
}

// TryAssign - атомарное закрепление: репозиторий выполняет условный UPDATE,
// здесь только подтверждаем существование сотрудника. Вызывается движком
// согласования внутри его транзакции (q = tx) либо напрямую.
func (s *AssetService) TryAssign(ctx context.Context, q repositories.Querier, assetCode string, userID uint64, username string) (*entities.Asset, error) {
	if username == "" {
		user, err := s.userRepo.FindUser(ctx, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewInvalidInputError("сотрудник %d не существует", userID)
			}
			return nil, err
		}
		username = user.Username
	}

	asset, err := s.assetRepo.AssignIfAvailable(ctx, q, assetCode, userID, username)
	if errors.Is(err, apperrors.ErrAlreadyAssigned) {
		// Конфликт уходит клиенту вместе с текущим держателем: оператор
		// должен видеть, кто опередил.
		return asset, apperrors.NewHttpError(http.StatusConflict,
			apperrors.ErrAlreadyAssigned.Error(),
			apperrors.ErrAlreadyAssigned,
			assetConflictDetails(asset))
	}
	return asset, err
}

// assetConflictDetails - текущее состояние актива для тела 409-ответа.
func assetConflictDetails(a *entities.Asset) map[string]interface{} {
	if a == nil {
		return nil
	}
	details := map[string]interface{}{
		"asset_code": a.AssetCode,
		"status":     a.Status,
	}
	if a.AssignedToUserID != nil {
		details["assigned_to_user_id"] = *a.AssignedToUserID
	}
	if a.AssignedToName != nil {
		details["assigned_to_name"] = *a.AssignedToName
	}
	return details
}

// Unassign снимает держателя. Для актива на обслуживании статус не меняется:
// убирается только ссылка, после ремонта актив станет Available. Снятие
// с незакреплённого актива идемпотентно: падает только неизвестный id.
func (s *AssetService) Unassign(ctx context.Context, id uint64) (*dto.AssetDTO, error) {
	asset, err := s.assetRepo.ClearAssignment(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return mapAssetToDTO(asset), nil
}

// ResolveMaintenance возвращает актив из обслуживания: Assigned, если ссылка
// держателя сохранилась, иначе Available. Прежний держатель получает
// уведомление.
func (s *AssetService) ResolveMaintenance(ctx context.Context, id uint64) (*dto.AssetDTO, error) {
	asset, err := s.assetRepo.ResolveMaintenance(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	event := events.MaintenanceResolved{
		AssetID:      asset.ID,
		AssetCode:    asset.AssetCode,
		AssetName:    asset.Name,
		NewStatus:    asset.Status,
		DepartmentID: asset.DepartmentID,
	}
	if asset.AssignedToUserID != nil {
		event.HolderID = *asset.AssignedToUserID
	}
	s.bus.Publish(ctx, event)

	return mapAssetToDTO(asset), nil
}

// -----------------------------------------------------------

func mapAssetToDTO(a *entities.Asset) *dto.AssetDTO {
	d := &dto.AssetDTO{
		ID:           a.ID,
		Name:         a.Name,
		Type:         a.Type,
		Brand:        a.Brand,
		Model:        a.Model,
		AssetCode:    a.AssetCode,
		Status:       a.Status,
		DepartmentID: a.DepartmentID,
		QRCode:       a.QRCode,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}

	if a.DateOfBuying != nil {
		s := a.DateOfBuying.Format("2006-01-02")
		d.DateOfBuying = &s
	}

	if a.AssignedToUserID != nil {
		holder := dto.ShortUserDTO{ID: *a.AssignedToUserID}
		if a.AssignedToName != nil {
			holder.Username = *a.AssignedToName
		}
		d.AssignedTo = &holder
	}

	return d
}
