package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
	"asset-system/pkg/constants"
	"asset-system/pkg/middleware"
)

func runIssueRouter(secureGroup *echo.Group, ctrl *controllers.IssueController, authMW *middleware.AuthMiddleware) {
	{
		secureGroup.GET("/issues", ctrl.GetIssueReports)
		secureGroup.GET("/issues/:id", ctrl.FindIssueReport)

		secureGroup.POST("/issues", ctrl.SubmitIssueReport, authMW.RequireRole(constants.RoleUser))
		secureGroup.POST("/issues/:id/decide", ctrl.DecideIssueReport, authMW.RequireRole(constants.RoleHod, constants.RoleAdmin))
	}
}
