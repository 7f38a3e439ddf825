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

const issueReportFields = `i.id, i.user_id, i.username, i.asset_code, i.department_id,
	i.message, i.status, i.rejection_comment, i.created_at, i.updated_at`

var issueReportMap = map[string]string{
	"id":            "i.id",
	"user_id":       "i.user_id",
	"asset_code":    "i.asset_code",
	"status":        "i.status",
	"department_id": "i.department_id",
	"created_at":    "i.created_at",
}

type IssueReportRepositoryInterface interface {
	GetIssueReports(ctx context.Context, filter types.Filter) ([]entities.IssueReport, uint64, error)
	FindIssueReport(ctx context.Context, id uint64) (*entities.IssueReport, error)
	CreateIssueReport(ctx context.Context, report entities.IssueReport) (*entities.IssueReport, error)
	UpdateStatusIf(ctx context.Context, q Querier, id uint64, fromStatus, toStatus string, comment *string) (*entities.IssueReport, error)
	DeleteIssueReportsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error
}

type IssueReportRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewIssueReportRepository(storage *pgxpool.Pool, logger *zap.Logger) IssueReportRepositoryInterface {
	return &IssueReportRepository{storage: storage, logger: logger}
}

func scanIssueReport(row pgx.Row) (*entities.IssueReport, error) {
	var i entities.IssueReport
	err := row.Scan(
		&i.ID, &i.UserID, &i.Username, &i.AssetCode, &i.DepartmentID,
		&i.Message, &i.Status, &i.RejectionComment, &i.CreatedAt, &i.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования issue_report: %w", err)
	}
	return &i, nil
}

func (r *IssueReportRepository) GetIssueReports(ctx context.Context, filter types.Filter) ([]entities.IssueReport, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(i.id)").From("issue_reports AS i")

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = bd.ApplyListParams(countBuilder, countFilter, issueReportMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.IssueReport{}, 0, nil
	}

	baseBuilder := psql.Select(
		"i.id", "i.user_id", "i.username", "i.asset_code", "i.department_id",
		"i.message", "i.status", "i.rejection_comment", "i.created_at", "i.updated_at",
	).From("issue_reports AS i")

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("i.id DESC")
	}
	baseBuilder = bd.ApplyListParams(baseBuilder, filter, issueReportMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports := make([]entities.IssueReport, 0, filter.Limit)
	for rows.Next() {
		report, err := scanIssueReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, *report)
	}

	return reports, total, nil
}

func (r *IssueReportRepository) FindIssueReport(ctx context.Context, id uint64) (*entities.IssueReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM issue_reports i WHERE i.id = $1`, issueReportFields)
	return scanIssueReport(r.storage.QueryRow(ctx, query, id))
}

func (r *IssueReportRepository) CreateIssueReport(ctx context.Context, report entities.IssueReport) (*entities.IssueReport, error) {
	query := fmt.Sprintf(`
		INSERT INTO issue_reports AS i (user_id, username, asset_code, department_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING %s
	`, issueReportFields)

	return scanIssueReport(r.storage.QueryRow(ctx, query,
		report.UserID, report.Username, report.AssetCode, report.DepartmentID,
		report.Message, report.Status))
}

// UpdateStatusIf - тот же условный переход, что и у заявок: WHERE по
// текущему статусу, при промахе - перечитать и отличить "нет такой записи"
// от "статус уже другой".
func (r *IssueReportRepository) UpdateStatusIf(ctx context.Context, q Querier, id uint64, fromStatus, toStatus string, comment *string) (*entities.IssueReport, error) {
	if q == nil {
		q = r.storage
	}

	query := fmt.Sprintf(`
		UPDATE issue_reports i
		SET status = $1, rejection_comment = $2, updated_at = NOW()
		WHERE i.id = $3 AND i.status = $4
		RETURNING %s
	`, issueReportFields)

	report, err := scanIssueReport(q.QueryRow(ctx, query, toStatus, comment, id, fromStatus))

	if errors.Is(err, apperrors.ErrNotFound) {
		current, findErr := scanIssueReport(q.QueryRow(ctx,
			fmt.Sprintf(`SELECT %s FROM issue_reports i WHERE i.id = $1`, issueReportFields), id))
		if findErr != nil {
			return nil, findErr
		}
		return current, apperrors.ErrInvalidTransition
	}

	return report, err
}

func (r *IssueReportRepository) DeleteIssueReportsOfUser(ctx context.Context, tx pgx.Tx, userID uint64) error {
	_, err := tx.Exec(ctx, `DELETE FROM issue_reports WHERE user_id = $1`, userID)
	return err
}
