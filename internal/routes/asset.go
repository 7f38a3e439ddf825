package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
	"asset-system/pkg/constants"
	"asset-system/pkg/middleware"
)

func runAssetRouter(secureGroup *echo.Group, ctrl *controllers.AssetController, authMW *middleware.AuthMiddleware) {
	adminOnly := authMW.RequireRole(constants.RoleAdmin)
	{
		// Просмотр открыт всем авторизованным: сотрудник должен видеть,
		// что можно запросить.
		secureGroup.GET("/assets", ctrl.GetAssets)
		secureGroup.GET("/assets/my", ctrl.GetMyAssets)
		secureGroup.GET("/assets/:id", ctrl.FindAsset)

		// Изменение реестра - только администратор.
		secureGroup.POST("/assets", ctrl.CreateAsset, adminOnly)
		secureGroup.PUT("/assets/:id", ctrl.UpdateAsset, adminOnly)
		secureGroup.DELETE("/assets/:id", ctrl.DeleteAsset, adminOnly)

		secureGroup.POST("/assets/assign", ctrl.AssignAsset, adminOnly)
		secureGroup.POST("/assets/:id/unassign", ctrl.UnassignAsset, adminOnly)
		secureGroup.POST("/assets/:id/resolve-maintenance", ctrl.ResolveMaintenance, adminOnly)

		secureGroup.POST("/assets/import", ctrl.ImportAssets, adminOnly)
	}
}
