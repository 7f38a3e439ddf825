package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/types"
)

type NotificationRepositoryInterface interface {
	CreateNotification(ctx context.Context, n entities.Notification) (uint64, error)
	GetByRecipient(ctx context.Context, recipientID uint64, filter types.Filter) ([]entities.Notification, uint64, error)
}

type NotificationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNotificationRepository(storage *pgxpool.Pool, logger *zap.Logger) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage, logger: logger}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n entities.Notification) (uint64, error) {
	query := `
		INSERT INTO notifications (recipient_id, message, actor_name, department_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`
	var newID uint64
	err := r.storage.QueryRow(ctx, query,
		n.RecipientID, n.Message, n.ActorName, n.DepartmentID).Scan(&newID)
	return newID, err
}

// GetByRecipient - лента уведомлений получателя, новые сверху.
func (r *NotificationRepository) GetByRecipient(ctx context.Context, recipientID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	var total uint64
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(id) FROM notifications WHERE recipient_id = $1`, recipientID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Notification{}, 0, nil
	}

	query := `
		SELECT id, recipient_id, message, actor_name, department_id, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []any{recipientID}
	if filter.WithPagination {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]entities.Notification, 0, filter.Limit)
	for rows.Next() {
		var n entities.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.ActorName, &n.DepartmentID, &n.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, 0, apperrors.ErrNotFound
			}
			return nil, 0, fmt.Errorf("ошибка сканирования notification: %w", err)
		}
		list = append(list, n)
	}

	return list, total, nil
}
