package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/utils"
)

type AssetController struct {
	assetService services.AssetServiceInterface
	importer     services.AssetImporterInterface
	logger       *zap.Logger
	timeoutSec   int
}

func NewAssetController(
	assetService services.AssetServiceInterface,
	importer services.AssetImporterInterface,
	logger *zap.Logger,
	timeoutSec int,
) *AssetController {
	return &AssetController{
		assetService: assetService,
		importer:     importer,
		logger:       logger,
		timeoutSec:   timeoutSec,
	}
}

func (c *AssetController) GetAssets(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.assetService.GetAssets(utils.Ctx(ctx, c.timeoutSec), filter)
	if err != nil {
		c.logger.Error("GetAssets: ошибка получения списка активов", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Активы успешно получены", http.StatusOK, total)
}

// GetMyAssets - активы, закреплённые за текущим сотрудником.
func (c *AssetController) GetMyAssets(ctx echo.Context) error {
	res, err := c.assetService.GetMyAssets(utils.Ctx(ctx, c.timeoutSec))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Активы успешно получены", http.StatusOK, uint64(len(res)))
}

func (c *AssetController) FindAsset(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	res, err := c.assetService.FindAsset(utils.Ctx(ctx, c.timeoutSec), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Актив успешно получен", http.StatusOK)
}

func (c *AssetController) CreateAsset(ctx echo.Context) error {
	var payload dto.CreateAssetDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.assetService.CreateAsset(utils.Ctx(ctx, c.timeoutSec), payload)
	if err != nil {
		c.logger.Error("CreateAsset: ошибка создания актива", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Актив успешно создан", http.StatusCreated)
}

func (c *AssetController) UpdateAsset(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	var payload dto.UpdateAssetDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.assetService.UpdateAsset(utils.Ctx(ctx, c.timeoutSec), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Актив успешно обновлён", http.StatusOK)
}

func (c *AssetController) DeleteAsset(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	if err := c.assetService.DeleteAsset(utils.Ctx(ctx, c.timeoutSec), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Актив успешно удалён", http.StatusOK)
}

// AssignAsset - прямое закрепление администратором, мимо цепочки
// согласования. Проходит через тот же гарант, что и одобрение заявки.
func (c *AssetController) AssignAsset(ctx echo.Context) error {
	var payload dto.AssignAssetDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	asset, err := c.assetService.TryAssign(utils.Ctx(ctx, c.timeoutSec), nil, payload.AssetCode, payload.UserID, "")
	if err != nil {
		c.logger.Warn("AssignAsset: закрепление не выполнено",
			zap.String("assetCode", payload.AssetCode), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, asset, "Актив успешно закреплён", http.StatusOK)
}

func (c *AssetController) UnassignAsset(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	res, err := c.assetService.Unassign(utils.Ctx(ctx, c.timeoutSec), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Закрепление снято", http.StatusOK)
}

func (c *AssetController) ResolveMaintenance(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	res, err := c.assetService.ResolveMaintenance(utils.Ctx(ctx, c.timeoutSec), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Актив возвращён из обслуживания", http.StatusOK)
}

// ImportAssets принимает xlsx-файл в поле 'file' и создаёт активы пакетом.
func (c *AssetController) ImportAssets(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "поле 'file' с xlsx-файлом не найдено"), c.logger)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	// Импорт может быть долгим, даём ему тройной лимит хранилища.
	res, err := c.importer.ImportFromXLSX(utils.Ctx(ctx, c.timeoutSec*3), data)
	if err != nil {
		c.logger.Error("ImportAssets: массовый импорт не выполнен", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Импорт завершён", http.StatusOK)
}
