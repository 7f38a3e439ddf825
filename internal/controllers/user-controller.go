package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/utils"
)

type UserController struct {
	userService services.UserServiceInterface
	logger      *zap.Logger
	timeoutSec  int
}

func NewUserController(
	userService services.UserServiceInterface,
	logger *zap.Logger,
	timeoutSec int,
) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
		timeoutSec:  timeoutSec,
	}
}

func (c *UserController) GetUsers(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.userService.GetUsers(utils.Ctx(ctx, c.timeoutSec), filter)
	if err != nil {
		c.logger.Error("GetUsers: ошибка получения списка сотрудников", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Сотрудники успешно получены", http.StatusOK, total)
}

func (c *UserController) FindUser(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	res, err := c.userService.FindUser(utils.Ctx(ctx, c.timeoutSec), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Сотрудник успешно получен", http.StatusOK)
}

func (c *UserController) CreateUser(ctx echo.Context) error {
	var payload dto.CreateUserDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.userService.CreateUser(utils.Ctx(ctx, c.timeoutSec), payload)
	if err != nil {
		c.logger.Error("CreateUser: ошибка создания аккаунта", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Аккаунт успешно создан", http.StatusCreated)
}

// DeleteUser удаляет аккаунт со всеми связанными записями.
func (c *UserController) DeleteUser(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	if err := c.userService.DeleteUser(utils.Ctx(ctx, c.timeoutSec), id); err != nil {
		c.logger.Error("DeleteUser: ошибка удаления аккаунта",
			zap.Uint64("userId", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Аккаунт удалён", http.StatusOK)
}
