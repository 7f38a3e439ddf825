package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
)

func runDepartmentRouter(secureGroup *echo.Group, ctrl *controllers.DepartmentController) {
	{
		secureGroup.GET("/departments", ctrl.GetDepartments)
	}
}
