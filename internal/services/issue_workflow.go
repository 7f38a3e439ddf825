package services

import (
	"context"
	"errors"
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

type IssueWorkflowServiceInterface interface {
	GetIssueReports(ctx context.Context, filter types.Filter) ([]dto.IssueReportDTO, uint64, error)
	FindIssueReport(ctx context.Context, id uint64) (*dto.IssueReportDTO, error)
	Submit(ctx context.Context, payload dto.CreateIssueReportDTO) (*dto.IssueReportDTO, error)
	Decide(ctx context.Context, id uint64, payload dto.DecideIssueDTO) (*dto.IssueReportDTO, error)
}

// IssueWorkflowService - движок согласования отчётов о неисправности.
// Та же двухступенчатая цепочка, что и у заявок, но финальное одобрение
// не закрепляет актив, а переводит его на обслуживание. Ссылка держателя
// при этом сохраняется, и после ремонта актив возвращается ему.
type IssueWorkflowService struct {
	issueRepo repositories.IssueReportRepositoryInterface
	assetRepo repositories.AssetRepositoryInterface
	txManager repositories.TxManagerInterface
	bus       *eventbus.Bus
	logger    *zap.Logger
}

func NewIssueWorkflowService(
	issueRepo repositories.IssueReportRepositoryInterface,
	assetRepo repositories.AssetRepositoryInterface,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) IssueWorkflowServiceInterface {
	return &IssueWorkflowService{
		issueRepo: issueRepo,
		assetRepo: assetRepo,
		txManager: txManager,
		bus:       bus,
		logger:    logger,
	}
}

func (s *IssueWorkflowService) GetIssueReports(ctx context.Context, filter types.Filter) ([]dto.IssueReportDTO, uint64, error) {
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

	reports, total, err := s.issueRepo.GetIssueReports(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.IssueReportDTO, 0, len(reports))
	for i := range reports {
		result = append(result, *mapIssueReportToDTO(&reports[i]))
	}
	return result, total, nil
}

func (s *IssueWorkflowService) FindIssueReport(ctx context.Context, id uint64) (*dto.IssueReportDTO, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.issueRepo.FindIssueReport(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case constants.RoleAdmin:
	case constants.RoleHod:
		if report.DepartmentID != actor.DepartmentID {
			return nil, apperrors.ErrForbidden
		}
	default:
		if report.UserID != actor.UserID {
			return nil, apperrors.ErrForbidden
		}
	}

	return mapIssueReportToDTO(report), nil
}

// Submit принимает отчёт о неисправности. Актив должен существовать;
// статус актива не проверяется - сломаться может и закреплённый, и
// свободный.
func (s *IssueWorkflowService) Submit(ctx context.Context, payload dto.CreateIssueReportDTO) (*dto.IssueReportDTO, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.assetRepo.FindAssetByCode(ctx, payload.AssetCode); err != nil {
		return nil, err
	}

	report, err := s.issueRepo.CreateIssueReport(ctx, entities.IssueReport{
		UserID:       actor.UserID,
		Username:     actor.Username,
		AssetCode:    payload.AssetCode,
		DepartmentID: actor.DepartmentID,
		Message:      payload.Message,
		Status:       constants.IssuePending,
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.IssueSubmitted{
		IssueID:      report.ID,
		UserID:       report.UserID,
		Username:     report.Username,
		AssetCode:    report.AssetCode,
		Message:      report.Message,
		DepartmentID: report.DepartmentID,
	})

	return mapIssueReportToDTO(report), nil
}

func (s *IssueWorkflowService) Decide(ctx context.Context, id uint64, payload dto.DecideIssueDTO) (*dto.IssueReportDTO, error) {
	actor, err := identityFromContext(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.issueRepo.FindIssueReport(ctx, id)
	if err != nil {
		return nil, err
	}

	var fromStatus, toStatus string
	switch actor.Role {
	case constants.RoleHod:
		if report.DepartmentID != actor.DepartmentID {
			return nil, apperrors.ErrForbidden
		}
		fromStatus = constants.IssuePending
		if payload.Decision == constants.DecisionApprove {
			toStatus = constants.IssueHodApproved
		} else {
			toStatus = constants.IssueHodRejected
		}
	case constants.RoleAdmin:
		fromStatus = constants.IssueHodApproved
		if payload.Decision == constants.DecisionApprove {
			toStatus = constants.IssueApproved
		} else {
			toStatus = constants.IssueRejected
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

	var updated *entities.IssueReport

	if toStatus == constants.IssueApproved {
		// Финальное одобрение: переход отчёта и перевод актива на
		// обслуживание - одна транзакция. Ссылка держателя не трогается.
		err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			updated, err = s.issueRepo.UpdateStatusIf(ctx, tx, id, fromStatus, toStatus, comment)
			if err != nil {
				return err
			}

			if _, maintErr := s.assetRepo.SetMaintenance(ctx, tx, report.AssetCode); maintErr != nil {
				return maintErr
			}
			return nil
		})
	} else {
		updated, err = s.issueRepo.UpdateStatusIf(ctx, nil, id, fromStatus, toStatus, comment)
	}

	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			s.logger.Warn("конкурирующее или повторное решение по отчёту",
				zap.Uint64("issueId", id),
				zap.String("actor", actor.Username))
			if updated != nil {
				return nil, transitionConflict(updated.Status)
			}
		}
		return nil, err
	}

	s.bus.Publish(ctx, events.IssueDecided{
		IssueID:      updated.ID,
		ReporterID:   updated.UserID,
		AssetCode:    updated.AssetCode,
		NewStatus:    updated.Status,
		ActorName:    actor.Username,
		DepartmentID: updated.DepartmentID,
		Comment:      payload.Comment,
	})

	return mapIssueReportToDTO(updated), nil
}

func mapIssueReportToDTO(r *entities.IssueReport) *dto.IssueReportDTO {
	return &dto.IssueReportDTO{
		ID:               r.ID,
		UserID:           r.UserID,
		Username:         r.Username,
		AssetCode:        r.AssetCode,
		DepartmentID:     r.DepartmentID,
		Message:          r.Message,
		Status:           r.Status,
		RejectionComment: r.RejectionComment,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
}
