package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/internal/infrastructure/bd"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

const assetTable = "assets"

const assetFields = `a.id, a.name, a.type, a.brand, a.model, a.date_of_buying, a.asset_code,
	a.status, a.department_id, a.assigned_to_user_id, a.assigned_to_name, a.qr_code,
	a.created_at, a.updated_at`

// ЕДИНАЯ КАРТА ПОЛЕЙ (Фильтр + Сортировка)
var assetMap = map[string]string{
	"id":            "a.id",
	"name":          "a.name",
	"type":          "a.type",
	"brand":         "a.brand",
	"asset_code":    "a.asset_code",
	"status":        "a.status",
	"department_id": "a.department_id",
	"assigned_to":   "a.assigned_to_user_id",
	"created_at":    "a.created_at",
}

type AssetRepositoryInterface interface {
	GetAssets(ctx context.Context, filter types.Filter) ([]entities.Asset, uint64, error)
	FindAsset(ctx context.Context, id uint64) (*entities.Asset, error)
	FindAssetByCode(ctx context.Context, assetCode string) (*entities.Asset, error)
	FindAssetsByHolder(ctx context.Context, userID uint64) ([]entities.Asset, error)
	CreateAsset(ctx context.Context, asset entities.Asset) (uint64, error)
	UpdateAsset(ctx context.Context, id uint64, asset entities.Asset) error
	DeleteAsset(ctx context.Context, id uint64) error

	// Условные обновления. Каждое - один UPDATE с предикатом по текущему
	// статусу: проверка и запись не разделяются, поэтому два конкурирующих
	// вызова не могут пройти оба.
	AssignIfAvailable(ctx context.Context, q Querier, assetCode string, userID uint64, username string) (*entities.Asset, error)
	ClearAssignment(ctx context.Context, q Querier, id uint64) (*entities.Asset, error)
	SetMaintenance(ctx context.Context, q Querier, assetCode string) (*entities.Asset, error)
	ResolveMaintenance(ctx context.Context, q Querier, id uint64) (*entities.Asset, error)
	ReleaseAssetsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error
}

type AssetRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAssetRepository(storage *pgxpool.Pool, logger *zap.Logger) AssetRepositoryInterface {
	return &AssetRepository{storage: storage, logger: logger}
}

// -----------------------------------------------------------
// SCAN
// -----------------------------------------------------------

func scanAsset(row pgx.Row) (*entities.Asset, error) {
	var a entities.Asset
	var dateOfBuying sql.NullTime
	var assignedToUserID sql.NullInt64
	var assignedToName, qrCode sql.NullString

	err := row.Scan(
		&a.ID, &a.Name, &a.Type, &a.Brand, &a.Model, &dateOfBuying, &a.AssetCode,
		&a.Status, &a.DepartmentID, &assignedToUserID, &assignedToName, &qrCode,
		&a.CreatedAt, &a.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования asset: %w", err)
	}

	if dateOfBuying.Valid {
		a.DateOfBuying = &dateOfBuying.Time
	}
	if assignedToUserID.Valid {
		id := uint64(assignedToUserID.Int64)
		a.AssignedToUserID = &id
	}
	if assignedToName.Valid {
		a.AssignedToName = &assignedToName.String
	}
	if qrCode.Valid {
		a.QRCode = &qrCode.String
	}

	return &a, nil
}

// -----------------------------------------------------------
// GET (Список)
// -----------------------------------------------------------

func (r *AssetRepository) GetAssets(ctx context.Context, filter types.Filter) ([]entities.Asset, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.Or{
				sq.ILike{"a.name": pat},
				sq.ILike{"a.asset_code": pat},
				sq.ILike{"a.model": pat},
			})
		}
		return b
	}

	// 1. COUNT
	countBuilder := psql.Select("COUNT(a.id)").From("assets AS a")
	countBuilder = applySearch(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil

	countBuilder = bd.ApplyListParams(countBuilder, countFilter, assetMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Asset{}, 0, nil
	}

	// 2. SELECT
	baseBuilder := psql.Select(
		"a.id", "a.name", "a.type", "a.brand", "a.model", "a.date_of_buying", "a.asset_code",
		"a.status", "a.department_id", "a.assigned_to_user_id", "a.assigned_to_name", "a.qr_code",
		"a.created_at", "a.updated_at",
	).From("assets AS a")

	baseBuilder = applySearch(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("a.id DESC")
	}

	baseBuilder = bd.ApplyListParams(baseBuilder, filter, assetMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assets := make([]entities.Asset, 0, filter.Limit)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, 0, err
		}
		assets = append(assets, *asset)
	}

	return assets, total, nil
}

// -----------------------------------------------------------
// FIND ONE
// -----------------------------------------------------------

func (r *AssetRepository) findOne(ctx context.Context, q Querier, where sq.Eq) (*entities.Asset, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	queryBuilder := psql.Select(
		"a.id", "a.name", "a.type", "a.brand", "a.model", "a.date_of_buying", "a.asset_code",
		"a.status", "a.department_id", "a.assigned_to_user_id", "a.assigned_to_name", "a.qr_code",
		"a.created_at", "a.updated_at",
	).From("assets a").Where(where)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}
	return scanAsset(q.QueryRow(ctx, sqlStr, args...))
}

func (r *AssetRepository) FindAsset(ctx context.Context, id uint64) (*entities.Asset, error) {
	return r.findOne(ctx, r.storage, sq.Eq{"a.id": id})
}

func (r *AssetRepository) FindAssetByCode(ctx context.Context, assetCode string) (*entities.Asset, error) {
	return r.findOne(ctx, r.storage, sq.Eq{"a.asset_code": assetCode})
}

func (r *AssetRepository) FindAssetsByHolder(ctx context.Context, userID uint64) ([]entities.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets a WHERE a.assigned_to_user_id = $1 ORDER BY a.id`, assetFields)

	rows, err := r.storage.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]entities.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}

	return assets, nil
}

// -----------------------------------------------------------
// CRUD
// -----------------------------------------------------------

func (r *AssetRepository) CreateAsset(ctx context.Context, asset entities.Asset) (uint64, error) {
	query := `
		INSERT INTO assets (name, type, brand, model, date_of_buying, asset_code, status, department_id, qr_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id
	`
	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		asset.Name, asset.Type, asset.Brand, asset.Model, asset.DateOfBuying,
		asset.AssetCode, asset.Status, asset.DepartmentID, asset.QRCode,
	).Scan(&newID)

	return newID, err
}

func (r *AssetRepository) UpdateAsset(ctx context.Context, id uint64, asset entities.Asset) error {
	query := `
		UPDATE assets
		SET name = $1, type = $2, brand = $3, model = $4, date_of_buying = $5,
		    department_id = $6, updated_at = NOW()
		WHERE id = $7
	`
	result, err := r.storage.Exec(ctx, query,
		asset.Name, asset.Type, asset.Brand, asset.Model, asset.DateOfBuying,
		asset.DepartmentID, id,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *AssetRepository) DeleteAsset(ctx context.Context, id uint64) error {
	// Закреплённый актив удалить нельзя - предикат по статусу держит это
	// правило даже при конкурирующем назначении.
	result, err := r.storage.Exec(ctx,
		`DELETE FROM assets WHERE id = $1 AND status != $2`, id, constants.AssetAssigned)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		if _, findErr := r.FindAsset(ctx, id); findErr != nil {
			return findErr
		}
		return apperrors.ErrAssetAssigned
	}

	return nil
}

// -----------------------------------------------------------
// УСЛОВНЫЕ ОБНОВЛЕНИЯ (compare-and-set по статусу)
// -----------------------------------------------------------

// AssignIfAvailable - ядро гаранта назначения: проверка доступности и запись
// держателя выполняются одним UPDATE. Из двух конкурирующих вызовов ровно
// один получит строку, второй - ErrAlreadyAssigned.
func (r *AssetRepository) AssignIfAvailable(ctx context.Context, q Querier, assetCode string, userID uint64, username string) (*entities.Asset, error) {
	if q == nil {
		q = r.storage
	}

	query := fmt.Sprintf(`
		UPDATE assets a
		SET status = $1, assigned_to_user_id = $2, assigned_to_name = $3, updated_at = NOW()
		WHERE a.asset_code = $4 AND a.status = $5
		RETURNING %s
	`, assetFields)

	asset, err := scanAsset(q.QueryRow(ctx, query,
		constants.AssetAssigned, userID, username, assetCode, constants.AssetAvailable))

	if errors.Is(err, apperrors.ErrNotFound) {
		// Предикат не сработал: либо кода нет, либо актив уже не Available.
		current, findErr := r.findOne(ctx, q, sq.Eq{"a.asset_code": assetCode})
		if findErr != nil {
			return nil, findErr
		}
		return current, apperrors.ErrAlreadyAssigned
	}
	if err != nil {
		return nil, err
	}

	return asset, nil
}

// ClearAssignment снимает держателя. Статус становится Available, кроме
// случая, когда актив на обслуживании - сломанный актив не притворяется
// доступным.
func (r *AssetRepository) ClearAssignment(ctx context.Context, q Querier, id uint64) (*entities.Asset, error) {
	if q == nil {
		q = r.storage
	}

	query := fmt.Sprintf(`
		UPDATE assets a
		SET assigned_to_user_id = NULL, assigned_to_name = NULL,
		    status = CASE WHEN a.status = $1 THEN a.status ELSE $2 END,
		    updated_at = NOW()
		WHERE a.id = $3
		RETURNING %s
	`, assetFields)

	return scanAsset(q.QueryRow(ctx, query,
		constants.AssetUnderMaintenance, constants.AssetAvailable, id))
}

// SetMaintenance переводит актив на обслуживание независимо от текущего
// статуса, но НЕ трогает ссылку назначения: после ремонта актив вернётся
// прежнему держателю.
func (r *AssetRepository) SetMaintenance(ctx context.Context, q Querier, assetCode string) (*entities.Asset, error) {
	if q == nil {
		q = r.storage
	}

	query := fmt.Sprintf(`
		UPDATE assets a
		SET status = $1, updated_at = NOW()
		WHERE a.asset_code = $2
		RETURNING %s
	`, assetFields)

	return scanAsset(q.QueryRow(ctx, query, constants.AssetUnderMaintenance, assetCode))
}

// ResolveMaintenance снимает актив с обслуживания: Assigned, если ссылка
// назначения сохранилась, иначе Available. Условие по текущему статусу
// защищает от повторного снятия.
func (r *AssetRepository) ResolveMaintenance(ctx context.Context, q Querier, id uint64) (*entities.Asset, error) {
	if q == nil {
		q = r.storage
	}

	query := fmt.Sprintf(`
		UPDATE assets a
		SET status = CASE WHEN a.assigned_to_user_id IS NOT NULL THEN $1 ELSE $2 END,
		    updated_at = NOW()
		WHERE a.id = $3 AND a.status = $4
		RETURNING %s
	`, assetFields)

	asset, err := scanAsset(q.QueryRow(ctx, query,
		constants.AssetAssigned, constants.AssetAvailable, id, constants.AssetUnderMaintenance))

	if errors.Is(err, apperrors.ErrNotFound) {
		if _, findErr := r.findOne(ctx, q, sq.Eq{"a.id": id}); findErr != nil {
			return nil, findErr
		}
		return nil, apperrors.ErrNotUnderMaintenance
	}

	return asset, err
}

// ReleaseAssetsOfUser освобождает все активы удаляемого сотрудника
// (каскад при удалении аккаунта).
func (r *AssetRepository) ReleaseAssetsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error {
	_, err := tx.Exec(ctx, `
		UPDATE assets
		SET assigned_to_user_id = NULL, assigned_to_name = NULL,
		    status = CASE WHEN status = $1 THEN status ELSE $2 END,
		    updated_at = NOW()
		WHERE assigned_to_user_id = $3
	`, constants.AssetUnderMaintenance, constants.AssetAvailable, userID)

	return err
}
