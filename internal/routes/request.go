package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
	"asset-system/pkg/constants"
	"asset-system/pkg/middleware"
)

func runRequestRouter(secureGroup *echo.Group, ctrl *controllers.RequestController, authMW *middleware.AuthMiddleware) {
	{
		// Видимость списка обрезает сам сервис по роли из токена.
		secureGroup.GET("/requests", ctrl.GetRequests)
		secureGroup.GET("/requests/:id", ctrl.FindRequest)

		secureGroup.POST("/requests", ctrl.SubmitRequest, authMW.RequireRole(constants.RoleUser))
		secureGroup.POST("/requests/:id/decide", ctrl.DecideRequest, authMW.RequireRole(constants.RoleHod, constants.RoleAdmin))
		secureGroup.DELETE("/requests/:id", ctrl.DeleteRequest, authMW.RequireRole(constants.RoleAdmin))
	}
}
