package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/repositories"
	"asset-system/pkg/utils"
)

// DepartmentController - справочник подразделений. Логики здесь нет,
// поэтому контроллер ходит в репозиторий напрямую.
type DepartmentController struct {
	deptRepo   repositories.DepartmentRepositoryInterface
	logger     *zap.Logger
	timeoutSec int
}

func NewDepartmentController(
	deptRepo repositories.DepartmentRepositoryInterface,
	logger *zap.Logger,
	timeoutSec int,
) *DepartmentController {
	return &DepartmentController{
		deptRepo:   deptRepo,
		logger:     logger,
		timeoutSec: timeoutSec,
	}
}

func (c *DepartmentController) GetDepartments(ctx echo.Context) error {
	res, err := c.deptRepo.GetDepartments(utils.Ctx(ctx, c.timeoutSec))
	if err != nil {
		c.logger.Error("GetDepartments: ошибка получения справочника", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Подразделения успешно получены", http.StatusOK)
}
