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

type IssueController struct {
	workflow   services.IssueWorkflowServiceInterface
	logger     *zap.Logger
	timeoutSec int
}

func NewIssueController(
	workflow services.IssueWorkflowServiceInterface,
	logger *zap.Logger,
	timeoutSec int,
) *IssueController {
	return &IssueController{
		workflow:   workflow,
		logger:     logger,
		timeoutSec: timeoutSec,
	}
}

func (c *IssueController) GetIssueReports(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.workflow.GetIssueReports(utils.Ctx(ctx, c.timeoutSec), filter)
	if err != nil {
		c.logger.Error("GetIssueReports: ошибка получения списка отчётов", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Отчёты успешно получены", http.StatusOK, total)
}

func (c *IssueController) FindIssueReport(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	res, err := c.workflow.FindIssueReport(utils.Ctx(ctx, c.timeoutSec), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Отчёт успешно получен", http.StatusOK)
}

func (c *IssueController) SubmitIssueReport(ctx echo.Context) error {
	var payload dto.CreateIssueReportDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workflow.Submit(utils.Ctx(ctx, c.timeoutSec), payload)
	if err != nil {
		c.logger.Warn("SubmitIssueReport: отчёт не принят",
			zap.String("assetCode", payload.AssetCode), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Отчёт о неисправности подан", http.StatusCreated)
}

func (c *IssueController) DecideIssueReport(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	var payload dto.DecideIssueDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workflow.Decide(utils.Ctx(ctx, c.timeoutSec), id, payload)
	if err != nil {
		c.logger.Warn("DecideIssueReport: решение не применено",
			zap.Uint64("issueId", id),
			zap.String("decision", payload.Decision),
			zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Решение по отчёту применено", http.StatusOK)
}
