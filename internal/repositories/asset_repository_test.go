package repositories

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД из TEST_DATABASE_URL и применяет
// схему. Без переменной окружения интеграционные тесты пропускаются.
func TestMain(m *testing.M) {
	testDbUrl := os.Getenv("TEST_DATABASE_URL")
	if testDbUrl != "" {
		var err error
		testPool, err = pgxpool.New(context.Background(), testDbUrl)
		if err != nil {
			log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
		}
		applySchema(testPool)
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

// applySchema выполняет Up-часть начальной миграции.
func applySchema(pool *pgxpool.Pool) {
	path, _ := filepath.Abs("../../migrations/00001_init.sql")
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Не удалось прочитать миграцию: %v", err)
	}

	up, _, _ := strings.Cut(string(raw), "-- +goose Down")
	if _, err := pool.Exec(context.Background(), up); err != nil {
		log.Fatalf("Не удалось применить схему БД: %v", err)
	}
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан, интеграционные тесты пропущены")
	}
}

// cleanupTables очищает таблицы для изоляции тестов.
func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE TABLE notifications, issue_reports, requests, assets, users, departments RESTART IDENTITY CASCADE;`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

// seedBase создаёт подразделение и сотрудника, возвращает их идентификаторы.
func seedBase(t *testing.T) (deptID, userID uint64) {
	t.Helper()
	ctx := context.Background()

	err := testPool.QueryRow(ctx,
		`INSERT INTO departments (name) VALUES ('IT') RETURNING id`).Scan(&deptID)
	require.NoError(t, err)

	err = testPool.QueryRow(ctx, `
		INSERT INTO users (email, username, password, role, department_id, department_name)
		VALUES ('petrov@example.com', 'petrov', 'hash', 'user', $1, 'IT')
		RETURNING id
	`, deptID).Scan(&userID)
	require.NoError(t, err)

	return deptID, userID
}

func seedAsset(t *testing.T, repo AssetRepositoryInterface, deptID uint64, code string) uint64 {
	t.Helper()
	id, err := repo.CreateAsset(context.Background(), entities.Asset{
		Name:         "Ноутбук",
		Type:         "laptop",
		AssetCode:    code,
		Status:       constants.AssetAvailable,
		DepartmentID: deptID,
	})
	require.NoError(t, err)
	return id
}

func TestAssignIfAvailable(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	deptID, userID := seedBase(t)

	repo := NewAssetRepository(testPool, zap.NewNop())
	seedAsset(t, repo, deptID, "AST-int-1")

	ctx := context.Background()

	asset, err := repo.AssignIfAvailable(ctx, nil, "AST-int-1", userID, "petrov")
	require.NoError(t, err)
	assert.Equal(t, constants.AssetAssigned, asset.Status)
	require.NotNil(t, asset.AssignedToUserID)
	assert.Equal(t, userID, *asset.AssignedToUserID)

	// Повторное закрепление проигрывает: условие по статусу не проходит.
	current, err := repo.AssignIfAvailable(ctx, nil, "AST-int-1", userID+1, "sidorov")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAssigned)
	require.NotNil(t, current)
	assert.Equal(t, userID, *current.AssignedToUserID, "держатель не должен смениться")
}

func TestAssignIfAvailable_UnknownCode(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	_, userID := seedBase(t)

	repo := NewAssetRepository(testPool, zap.NewNop())

	_, err := repo.AssignIfAvailable(context.Background(), nil, "AST-missing", userID, "petrov")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMaintenanceRoundTrip(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	deptID, userID := seedBase(t)

	repo := NewAssetRepository(testPool, zap.NewNop())
	assetID := seedAsset(t, repo, deptID, "AST-int-2")

	ctx := context.Background()

	_, err := repo.AssignIfAvailable(ctx, nil, "AST-int-2", userID, "petrov")
	require.NoError(t, err)

	// На обслуживание: ссылка держателя сохраняется.
	asset, err := repo.SetMaintenance(ctx, nil, "AST-int-2")
	require.NoError(t, err)
	assert.Equal(t, constants.AssetUnderMaintenance, asset.Status)
	require.NotNil(t, asset.AssignedToUserID)

	// Из обслуживания: актив возвращается держателю.
	asset, err = repo.ResolveMaintenance(ctx, nil, assetID)
	require.NoError(t, err)
	assert.Equal(t, constants.AssetAssigned, asset.Status)

	// Повторное снятие с обслуживания не проходит.
	_, err = repo.ResolveMaintenance(ctx, nil, assetID)
	assert.ErrorIs(t, err, apperrors.ErrNotUnderMaintenance)
}

func TestClearAssignment_KeepsMaintenance(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	deptID, userID := seedBase(t)

	repo := NewAssetRepository(testPool, zap.NewNop())
	assetID := seedAsset(t, repo, deptID, "AST-int-3")

	ctx := context.Background()

	_, err := repo.AssignIfAvailable(ctx, nil, "AST-int-3", userID, "petrov")
	require.NoError(t, err)
	_, err = repo.SetMaintenance(ctx, nil, "AST-int-3")
	require.NoError(t, err)

	asset, err := repo.ClearAssignment(ctx, nil, assetID)
	require.NoError(t, err)
	assert.Equal(t, constants.AssetUnderMaintenance, asset.Status)
	assert.Nil(t, asset.AssignedToUserID)

	// После ремонта без держателя актив свободен.
	asset, err = repo.ResolveMaintenance(ctx, nil, assetID)
	require.NoError(t, err)
	assert.Equal(t, constants.AssetAvailable, asset.Status)
}

func TestDeleteAsset_RefusesAssigned(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	deptID, userID := seedBase(t)

	repo := NewAssetRepository(testPool, zap.NewNop())
	assetID := seedAsset(t, repo, deptID, "AST-int-4")

	ctx := context.Background()

	_, err := repo.AssignIfAvailable(ctx, nil, "AST-int-4", userID, "petrov")
	require.NoError(t, err)

	err = repo.DeleteAsset(ctx, assetID)
	assert.ErrorIs(t, err, apperrors.ErrAssetAssigned)
}

func TestRequestUpdateStatusIf(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	deptID, userID := seedBase(t)

	repo := NewRequestRepository(testPool, zap.NewNop())
	ctx := context.Background()

	req, err := repo.CreateRequest(ctx, entities.Request{
		UserID:       userID,
		Username:     "petrov",
		AssetCode:    "AST-int-5",
		DepartmentID: deptID,
		Status:       constants.RequestPending,
	})
	require.NoError(t, err)

	updated, err := repo.UpdateStatusIf(ctx, nil, req.ID, constants.RequestPending, constants.RequestHodApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestHodApproved, updated.Status)

	// Конкурирующее решение из уже покинутого статуса отклоняется,
	// вызывающему возвращается текущее состояние.
	current, err := repo.UpdateStatusIf(ctx, nil, req.ID, constants.RequestPending, constants.RequestHodRejected, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	require.NotNil(t, current)
	assert.Equal(t, constants.RequestHodApproved, current.Status)
}
