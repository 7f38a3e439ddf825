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

type RequestController struct {
	workflow   services.RequestWorkflowServiceInterface
	logger     *zap.Logger
	timeoutSec int
}

func NewRequestController(
	workflow services.RequestWorkflowServiceInterface,
	logger *zap.Logger,
	timeoutSec int,
) *RequestController {
	return &RequestController{
		workflow:   workflow,
		logger:     logger,
		timeoutSec: timeoutSec,
	}
}

func (c *RequestController) GetRequests(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.workflow.GetRequests(utils.Ctx(ctx, c.timeoutSec), filter)
	if err != nil {
		c.logger.Error("GetRequests: ошибка получения списка заявок", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Заявки успешно получены", http.StatusOK, total)
}

func (c *RequestController) FindRequest(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	res, err := c.workflow.FindRequest(utils.Ctx(ctx, c.timeoutSec), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Заявка успешно получена", http.StatusOK)
}

func (c *RequestController) SubmitRequest(ctx echo.Context) error {
	var payload dto.CreateRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workflow.Submit(utils.Ctx(ctx, c.timeoutSec), payload)
	if err != nil {
		c.logger.Warn("SubmitRequest: заявка не принята",
			zap.String("assetCode", payload.AssetCode), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Заявка успешно подана", http.StatusCreated)
}

func (c *RequestController) DecideRequest(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	var payload dto.DecideRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workflow.Decide(utils.Ctx(ctx, c.timeoutSec), id, payload)
	if err != nil {
		c.logger.Warn("DecideRequest: решение не применено",
			zap.Uint64("requestId", id),
			zap.String("decision", payload.Decision),
			zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Решение по заявке применено", http.StatusOK)
}

func (c *RequestController) DeleteRequest(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	if err := c.workflow.DeleteRequest(utils.Ctx(ctx, c.timeoutSec), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "Заявка успешно удалена", http.StatusOK)
}
