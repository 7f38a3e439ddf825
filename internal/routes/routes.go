package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/controllers"
	"asset-system/internal/listeners"
	"asset-system/internal/repositories"
	"asset-system/internal/services"
	"asset-system/pkg/config"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/filestorage"
	"asset-system/pkg/middleware"
	"asset-system/pkg/qr"
	"asset-system/pkg/service"
)

type Loggers struct {
	Main     *zap.Logger
	Auth     *zap.Logger
	Asset    *zap.Logger
	Workflow *zap.Logger
}

// InitRouter собирает весь граф зависимостей и вешает маршруты.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, loggers.Auth)
	txManager := repositories.NewTxManager(dbConn)
	bus := eventbus.New(loggers.Main)

	qrStorage, err := filestorage.NewLocalFileStorage(cfg.Storage.QRCodeDir)
	if err != nil {
		loggers.Main.Fatal("не удалось создать хранилище QR-кодов", zap.Error(err))
	}
	qrGenerator := qr.NewGenerator()

	timeoutSec := int(cfg.Workflow.StoreTimeout.Seconds())
	if timeoutSec <= 0 {
		timeoutSec = 5
	}

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.Main)
	deptRepo := repositories.NewDepartmentRepository(dbConn, loggers.Main)
	assetRepo := repositories.NewAssetRepository(dbConn, loggers.Asset)
	requestRepo := repositories.NewRequestRepository(dbConn, loggers.Workflow)
	issueRepo := repositories.NewIssueReportRepository(dbConn, loggers.Workflow)
	notificationRepo := repositories.NewNotificationRepository(dbConn, loggers.Main)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- 2. СЕРВИСЫ ---
	assetService := services.NewAssetService(assetRepo, deptRepo, userRepo, qrGenerator, qrStorage, bus, loggers.Asset)
	assetImporter := services.NewAssetImporter(assetRepo, deptRepo, qrGenerator, qrStorage, loggers.Asset)
	requestWorkflow := services.NewRequestWorkflowService(requestRepo, assetRepo, assetService, txManager, bus, loggers.Workflow)
	issueWorkflow := services.NewIssueWorkflowService(issueRepo, assetRepo, txManager, bus, loggers.Workflow)
	notificationService := services.NewNotificationService(notificationRepo, loggers.Main)
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, cfg.Auth, loggers.Auth)
	userService := services.NewUserService(userRepo, deptRepo, assetRepo, requestRepo, issueRepo, cacheRepo, txManager, loggers.Main)

	// --- 3. СЛУШАТЕЛИ ---
	notificationListener := listeners.NewNotificationListener(notificationService, userRepo, cacheRepo, loggers.Main)
	notificationListener.Register(bus)

	// --- 4. КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, loggers.Auth, timeoutSec)
	assetController := controllers.NewAssetController(assetService, assetImporter, loggers.Asset, timeoutSec)
	requestController := controllers.NewRequestController(requestWorkflow, loggers.Workflow, timeoutSec)
	issueController := controllers.NewIssueController(issueWorkflow, loggers.Workflow, timeoutSec)
	notificationController := controllers.NewNotificationController(notificationService, loggers.Main, timeoutSec)
	userController := controllers.NewUserController(userService, loggers.Main, timeoutSec)
	deptController := controllers.NewDepartmentController(deptRepo, loggers.Main, timeoutSec)

	// --- 5. МАРШРУТЫ ---
	runAuthRouter(api, authController)

	secureGroup := api.Group("", authMW.Auth)
	runAssetRouter(secureGroup, assetController, authMW)
	runRequestRouter(secureGroup, requestController, authMW)
	runIssueRouter(secureGroup, issueController, authMW)
	runNotificationRouter(secureGroup, notificationController)
	runUserRouter(secureGroup, userController, authMW)
	runDepartmentRouter(secureGroup, deptController)

	loggers.Main.Info("InitRouter: Все маршруты созданы")
}
