package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

type NotificationController struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
	timeoutSec          int
}

func NewNotificationController(
	notificationService services.NotificationServiceInterface,
	logger *zap.Logger,
	timeoutSec int,
) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		logger:              logger,
		timeoutSec:          timeoutSec,
	}
}

// GetMyNotifications - лента текущего пользователя, новые сверху.
func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.notificationService.GetMyNotifications(utils.Ctx(ctx, c.timeoutSec), filter)
	if err != nil {
		c.logger.Error("GetMyNotifications: ошибка получения уведомлений", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Уведомления успешно получены", http.StatusOK, total)
}
