package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/events"
	"asset-system/internal/repositories"
	"asset-system/pkg/constants"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/types"
)

type RequestWorkflowServiceInterface interface {
	GetRequests(ctx context.Context, filter types.Filter) ([]dto.RequestDTO, uint64, error)
	FindRequest(ctx context.Context, id uint64) (*dto.RequestDTO, error)
	Submit(ctx context.Context, payload dto.CreateRequestDTO) (*dto.RequestDTO, error)
	Decide(ctx context.Context, id uint64, payload dto.DecideRequestDTO) (*dto.RequestDTO, error)
	DeleteRequest(ctx context.Context, id uint64) error
}

// RequestWorkflowService - движок согласования заявок на активы.
// Цепочка строго вперёд: Pending -> HOD Approved -> Admin Approved,
// отклонение на любой ступени - тупик. Закрепление актива происходит
// только на последнем переходе и только в одной транзакции с ним.
type RequestWorkflowService struct {
	requestRepo  repositories.RequestRepositoryInterface
	assetRepo    repositories.AssetRepositoryInterface
	assetService AssetServiceInterface
	txManager    repositories.TxManagerInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewRequestWorkflowService(
	requestRepo repositories.RequestRepositoryInterface,
	assetRepo repositories.AssetRepositoryInterface,
	assetService AssetServiceInterface,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) RequestWorkflowServiceInterface {
	return &RequestWorkflowService{
		requestRepo:  requestRepo,
		assetRepo:    assetRepo,
		assetService: assetService,
		txManager:    txManager,
		bus:          bus,
		logger:       logger,
	}
}

// GetRequests отдаёт список, обрезанный по роли: сотрудник видит свои заявки,
// HOD - заявки своего отдела, администратор - все.
func (s *RequestWorkflowService) GetRequests(ctx context.Context, filter types.Filter) ([]dto.RequestDTO, uint64, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	if filter.Filter == nil {
		filter.Filter = make(map[string]interface{})
	}
	switch actor.Role {
	case constants.RoleAdmin:
		// без ограничений
	case constants.RoleHod:
		filter.Filter["department_id"] = actor.DepartmentID
	default:
		filter.Filter["user_id"] = actor.UserID
	}

	requests, total, err := s.requestRepo.GetRequests(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.RequestDTO, 0, len(requests))
	for i := range requests {
		result = append(result, *mapRequestToDTO(&requests[i]))
	}
	return result, total, nil
}

func (s *RequestWorkflowService) FindRequest(ctx context.Context, id uint64) (*dto.RequestDTO, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkVisibility(actor, req); err != nil {
		return nil, err
	}
	return mapRequestToDTO(req), nil
}

func (s *RequestWorkflowService) checkVisibility(actor Identity, req *entities.Request) error {
	switch actor.Role {
	case constants.RoleAdmin:
		return nil
	case constants.RoleHod:
		if req.DepartmentID != actor.DepartmentID {
			return apperrors.ErrForbidden
		}
		return nil
	default:
		if req.UserID != actor.UserID {
			return apperrors.ErrForbidden
		}
		return nil
	}
}

// Submit создаёт заявку в статусе Pending. Доступность актива проверяется
// сразу, чтобы не гонять через два уровня согласования заведомо мёртвую
// заявку; окончательная проверка всё равно произойдёт при закреплении.
func (s *RequestWorkflowService) Submit(ctx context.Context, payload dto.CreateRequestDTO) (*dto.RequestDTO, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	asset, err := s.assetRepo.FindAssetByCode(ctx, payload.AssetCode)
	if err != nil {
		return nil, err
	}
	// Запросить можно только свободный актив своего подразделения.
	if asset.Status != constants.AssetAvailable || asset.DepartmentID != actor.DepartmentID {
		return nil, apperrors.ErrAssetUnavailable
	}

	req, err := s.requestRepo.CreateRequest(ctx, entities.Request{
		UserID:       actor.UserID,
		Username:     actor.Username,
		AssetCode:    payload.AssetCode,
		DepartmentID: actor.DepartmentID,
		Status:       constants.RequestPending,
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.RequestSubmitted{
		RequestID:    req.ID,
		UserID:       req.UserID,
		Username:     req.Username,
		AssetCode:    req.AssetCode,
		DepartmentID: req.DepartmentID,
	})

	return mapRequestToDTO(req), nil
}

// Decide применяет решение действующего лица к заявке. Целевой статус
// выводится из пары (роль, decision); сам переход - условный UPDATE, так
// что два конкурирующих решения по одной заявке никогда не пройдут оба.
func (s *RequestWorkflowService) Decide(ctx context.Context, id uint64, payload dto.DecideRequestDTO) (*dto.RequestDTO, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	req, err := s.requestRepo.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	var fromStatus, toStatus string
	switch actor.Role {
	case constants.RoleHod:
		if req.DepartmentID != actor.DepartmentID {
			return nil, apperrors.ErrForbidden
		}
		fromStatus = constants.RequestPending
		if payload.Decision == constants.DecisionApprove {
			toStatus = constants.RequestHodApproved
		} else {
			toStatus = constants.RequestHodRejected
		}
	case constants.RoleAdmin:
		fromStatus = constants.RequestHodApproved
		if payload.Decision == constants.DecisionApprove {
			toStatus = constants.RequestAdminApproved
		} else {
			toStatus = constants.RequestAdminRejected
		}
	default:
		return nil, apperrors.ErrForbidden
	}

	var comment *string
	if payload.Decision == constants.DecisionReject {
		trimmed := strings.TrimSpace(payload.Comment)
		if trimmed == "" {
			return nil, apperrors.ErrMissingComment
		}
		comment = &trimmed
	}

	var updated *entities.Request

	if toStatus == constants.RequestAdminApproved {
		// Финальное одобрение: переход заявки и закрепление актива - одна
		// транзакция. Если актив перехвачен конкурирующим решением, обе
		// записи откатываются и заявка остаётся в HOD Approved.
		err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			updated, err = s.requestRepo.UpdateStatusIf(ctx, tx, id, fromStatus, toStatus, comment)
			if err != nil {
				return err
			}

			if current, assignErr := s.assetService.TryAssign(ctx, tx, req.AssetCode, req.UserID, req.Username); assignErr != nil {
				if errors.Is(assignErr, apperrors.ErrAlreadyAssigned) {
					return apperrors.NewHttpError(http.StatusConflict,
						apperrors.ErrAssetNoLongerAvailable.Error(),
						apperrors.ErrAssetNoLongerAvailable,
						assetConflictDetails(current))
				}
				return assignErr
			}
			return nil
		})
	} else {
		updated, err = s.requestRepo.UpdateStatusIf(ctx, nil, id, fromStatus, toStatus, comment)
	}

	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			s.logger.Warn("конкурирующее или повторное решение по заявке",
				zap.Uint64("requestId", id),
				zap.String("actor", actor.Username))
			if updated != nil {
				return nil, transitionConflict(updated.Status)
			}
		}
		return nil, err
	}

	s.bus.Publish(ctx, events.RequestDecided{
		RequestID:    updated.ID,
		RequesterID:  updated.UserID,
		AssetCode:    updated.AssetCode,
		NewStatus:    updated.Status,
		ActorName:    actor.Username,
		DepartmentID: updated.DepartmentID,
		Comment:      payload.Comment,
	})

	return mapRequestToDTO(updated), nil
}

// transitionConflict - 409 с актуальным статусом записи: проигравшая сторона
// видит, какой переход её опередил.
func transitionConflict(currentStatus string) error {
	return apperrors.NewHttpError(http.StatusConflict,
		apperrors.ErrInvalidTransition.Error(),
		apperrors.ErrInvalidTransition,
		map[string]interface{}{"current_status": currentStatus})
}

// DeleteRequest убирает заявку из системы. Доступно только администратору
// (охраняется на уровне маршрута); закрепление актива не трогается.
func (s *RequestWorkflowService) DeleteRequest(ctx context.Context, id uint64) error {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return err
	}

	if err := s.requestRepo.DeleteRequest(ctx, id); err != nil {
		return err
	}

	s.logger.Info("заявка удалена администратором",
		zap.Uint64("requestId", id),
		zap.String("actor", actor.Username))
	return nil
}

func mapRequestToDTO(r *entities.Request) *dto.RequestDTO {
	return &dto.RequestDTO{
		ID:               r.ID,
		UserID:           r.UserID,
		Username:         r.Username,
		AssetCode:        r.AssetCode,
		DepartmentID:     r.DepartmentID,
		Status:           r.Status,
		RejectionComment: r.RejectionComment,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}
