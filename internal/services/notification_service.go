package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/types"
)

type NotificationServiceInterface interface {
	// Notify пишет уведомление получателю. Ошибка возвращается вызывающему
	// слушателю только для логирования - на породивший переход она
	// повлиять уже не может.
	Notify(ctx context.Context, recipientID uint64, message, actorName string, departmentID uint64) error
	GetMyNotifications(ctx context.Context, filter types.Filter) ([]dto.NotificationDTO, uint64, error)
}

type NotificationService struct {
	notificationRepo repositories.NotificationRepositoryInterface
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepositoryInterface,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *NotificationService) Notify(ctx context.Context, recipientID uint64, message, actorName string, departmentID uint64) error {
	_, err := s.notificationRepo.CreateNotification(ctx, entities.Notification{
		RecipientID:  recipientID,
		Message:      message,
		ActorName:    actorName,
		DepartmentID: departmentID,
	})
	return err
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, filter types.Filter) ([]dto.NotificationDTO, uint64, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	list, total, err := s.notificationRepo.GetByRecipient(ctx, actor.UserID, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.NotificationDTO, 0, len(list))
	for _, n := range list {
		result = append(result, dto.NotificationDTO{
			ID:           n.ID,
			Message:      n.Message,
			ActorName:    n.ActorName,
			DepartmentID: n.DepartmentID,
			CreatedAt:    n.CreatedAt.Format(time.RFC3339),
		})
	}

	return result, total, nil
}
