package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/internal/infrastructure/bd"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

const requestFields = `r.id, r.user_id, r.username, r.asset_code, r.department_id,
	r.status, r.rejection_comment, r.created_at, r.updated_at`

var requestMap = map[string]string{
	"id":            "r.id",
	"user_id":       "r.user_id",
	"asset_code":    "r.asset_code",
	"status":        "r.status",
	"department_id": "r.department_id",
	"created_at":    "r.created_at",
}

type RequestRepositoryInterface interface {
	GetRequests(ctx context.Context, filter types.Filter) ([]entities.Request, uint64, error)
	FindRequest(ctx context.Context, id uint64) (*entities.Request, error)
	CreateRequest(ctx context.Context, req entities.Request) (*entities.Request, error)

	// UpdateStatusIf переводит заявку из fromStatus в toStatus одним
	// условным UPDATE. Если заявка уже в другом статусе, вернётся
	// ErrInvalidTransition вместе с её текущим состоянием.
	UpdateStatusIf(ctx context.Context, q Querier, id uint64, fromStatus, toStatus string, comment *string) (*entities.Request, error)

	DeleteRequest(ctx context.Context, id uint64) error
	DeleteRequestsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error
}

type RequestRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRequestRepository(storage *pgxpool.Pool, logger *zap.Logger) RequestRepositoryInterface {
	return &RequestRepository{storage: storage, logger: logger}
}

func scanRequest(row pgx.Row) (*entities.Request, error) {
	var r entities.Request
	err := row.Scan(
		&r.ID, &r.UserID, &r.Username, &r.AssetCode, &r.DepartmentID,
		&r.Status, &r.RejectionComment, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования request: %w", err)
	}
	return &r, nil
}

func (r *RequestRepository) GetRequests(ctx context.Context, filter types.Filter) ([]entities.Request, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(r.id)").From("requests AS r")

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, requestMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Request{}, 0, nil
	}

	baseBuilder := psql.Select(
		"r.id", "r.user_id", "r.username", "r.asset_code", "r.department_id",
		"r.status", "r.rejection_comment", "r.created_at", "r.updated_at",
	).From("requests AS r")

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("r.id DESC")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, requestMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := make([]entities.Request, 0, filter.Limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, *req)
	}

	return requests, total, nil
}

func (r *RequestRepository) FindRequest(ctx context.Context, id uint64) (*entities.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests r WHERE r.id = $1`, requestFields)
	return scanRequest(r.storage.QueryRow(ctx, query, id))
}

func (r *RequestRepository) CreateRequest(ctx context.Context, req entities.Request) (*entities.Request, error) {
	query := fmt.Sprintf(`
		INSERT INTO requests AS r (user_id, username, asset_code, department_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING %s
	`, requestFields)

	return scanRequest(r.storage.QueryRow(ctx, query,
		req.UserID, req.Username, req.AssetCode, req.DepartmentID, req.Status))
}

func (r *RequestRepository) UpdateStatusIf(ctx context.Context, q Querier, id uint64, fromStatus, toStatus string, comment *string) (*entities.Request, error) {
	if q == nil {
		q = r.storage
	}

	query := fmt.Sprintf(`
		UPDATE requests r
		SET status = $1, rejection_comment = $2, updated_at = NOW()
		WHERE r.id = $3 AND r.status = $4
		RETURNING %s
	`, requestFields)

	req, err := scanRequest(q.QueryRow(ctx, query, toStatus, comment, id, fromStatus))

	if errors.Is(err, apperrors.ErrNotFound) {
		// Либо заявки нет, либо она уже покинула fromStatus.
		current, findErr := scanRequest(q.QueryRow(ctx,
			fmt.Sprintf(`SELECT %s FROM requests r WHERE r.id = $1`, requestFields), id))
		if findErr != nil {
			return nil, findErr
		}
		return current, apperrors.ErrInvalidTransition
	}

	return req, err
}

func (r *RequestRepository) DeleteRequest(ctx context.Context, id uint64) error {
	tag, err := r.storage.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RequestRepository) DeleteRequestsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error {
	_, err := tx.Exec(ctx, `DELETE FROM requests WHERE user_id = $1`, userID)
	return err
}
