package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
)

func runNotificationRouter(secureGroup *echo.Group, ctrl *controllers.NotificationController) {
	{
		secureGroup.GET("/notifications", ctrl.GetMyNotifications)
	}
}
