package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
	"asset-system/pkg/constants"
	"asset-system/pkg/middleware"
)

func runUserRouter(secureGroup *echo.Group, ctrl *controllers.UserController, authMW *middleware.AuthMiddleware) {
	adminOnly := authMW.RequireRole(constants.RoleAdmin)
	{
		secureGroup.GET("/users", ctrl.GetUsers, adminOnly)
		secureGroup.GET("/users/:id", ctrl.FindUser, adminOnly)
		secureGroup.POST("/users", ctrl.CreateUser, adminOnly)
		secureGroup.DELETE("/users/:id", ctrl.DeleteUser, adminOnly)
	}
}
