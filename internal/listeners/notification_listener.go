package listeners

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"asset-system/internal/events"
	"asset-system/internal/repositories"
	"asset-system/internal/services"
	"asset-system/pkg/constants"
	"asset-system/pkg/eventbus"
)

const approversCacheTTL = 10 * time.Minute

// approverRef - то, что кладётся в кеш: достаточно для адресации
// уведомления, без лишних полей аккаунта.
type approverRef struct {
	ID   uint64 `json:"id"`
	Role string `json:"role"`
}

// NotificationListener превращает события движка согласования в записи
// уведомлений. Работает асинхронно за шиной: любая его ошибка логируется
// и никогда не влияет на породивший событие переход.
type NotificationListener struct {
	notificationService services.NotificationServiceInterface
	userRepo            repositories.UserRepositoryInterface
	cacheRepo           repositories.CacheRepositoryInterface
	logger              *zap.Logger
}

func NewNotificationListener(
	notificationService services.NotificationServiceInterface,
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		notificationService: notificationService,
		userRepo:            userRepo,
		cacheRepo:           cacheRepo,
		logger:              logger,
	}
}

// Register подписывает слушателя на все события рабочего процесса.
func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.EventRequestSubmitted, l.onRequestSubmitted)
	bus.Subscribe(events.EventRequestDecided, l.onRequestDecided)
	bus.Subscribe(events.EventIssueSubmitted, l.onIssueSubmitted)
	bus.Subscribe(events.EventIssueDecided, l.onIssueDecided)
	bus.Subscribe(events.EventMaintenanceResolved, l.onMaintenanceResolved)
}

func (l *NotificationListener) onRequestSubmitted(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.RequestSubmitted)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	message := fmt.Sprintf("Сотрудник %s запросил актив %s", e.Username, e.AssetCode)
	return l.notifyApprovers(ctx, e.DepartmentID, nil, message, e.Username)
}

func (l *NotificationListener) onRequestDecided(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.RequestDecided)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	message := l.decisionMessage("Заявка", e.AssetCode, e.NewStatus, e.Comment)

	// Автор заявки узнаёт о решении всегда.
	if err := l.notificationService.Notify(ctx, e.RequesterID, message, e.ActorName, e.DepartmentID); err != nil {
		l.logger.Error("не удалось уведомить автора заявки",
			zap.Uint64("requestId", e.RequestID), zap.Error(err))
	}

	// После одобрения HOD-ом заявка переходит к администраторам.
	if e.NewStatus == constants.RequestHodApproved {
		adminsOnly := func(role string) bool { return role == constants.RoleAdmin }
		adminMsg := fmt.Sprintf("Заявка на актив %s ожидает решения администратора", e.AssetCode)
		return l.notifyApprovers(ctx, e.DepartmentID, adminsOnly, adminMsg, e.ActorName)
	}

	return nil
}

func (l *NotificationListener) onIssueSubmitted(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.IssueSubmitted)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	message := fmt.Sprintf("Сотрудник %s сообщил о неисправности актива %s: %s", e.Username, e.AssetCode, e.Message)
	return l.notifyApprovers(ctx, e.DepartmentID, nil, message, e.Username)
}

func (l *NotificationListener) onIssueDecided(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.IssueDecided)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	message := l.decisionMessage("Отчёт о неисправности", e.AssetCode, e.NewStatus, e.Comment)

	if err := l.notificationService.Notify(ctx, e.ReporterID, message, e.ActorName, e.DepartmentID); err != nil {
		l.logger.Error("не удалось уведомить автора отчёта",
			zap.Uint64("issueId", e.IssueID), zap.Error(err))
	}

	if e.NewStatus == constants.IssueHodApproved {
		adminsOnly := func(role string) bool { return role == constants.RoleAdmin }
		adminMsg := fmt.Sprintf("Отчёт о неисправности актива %s ожидает решения администратора", e.AssetCode)
		return l.notifyApprovers(ctx, e.DepartmentID, adminsOnly, adminMsg, e.ActorName)
	}

	return nil
}

func (l *NotificationListener) onMaintenanceResolved(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.MaintenanceResolved)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	// Уведомлять некого, если ссылка держателя не пережила ремонт.
	if e.HolderID == 0 {
		return nil
	}

	message := fmt.Sprintf("Актив %s (%s) возвращён из обслуживания", e.AssetName, e.AssetCode)
	return l.notificationService.Notify(ctx, e.HolderID, message, "", e.DepartmentID)
}

func (l *NotificationListener) decisionMessage(subject, assetCode, newStatus, comment string) string {
	message := fmt.Sprintf("%s по активу %s: новый статус %q", subject, assetCode, newStatus)
	if comment != "" {
		message += fmt.Sprintf(" (комментарий: %s)", comment)
	}
	return message
}

// notifyApprovers рассылает сообщение согласующим подразделения: его
// HOD-ам и всем администраторам. Ошибка по одному получателю не
// останавливает рассылку остальным.
func (l *NotificationListener) notifyApprovers(ctx context.Context, departmentID uint64, roleFilter func(string) bool, message, actorName string) error {
	approvers, err := l.resolveApprovers(ctx, departmentID)
	if err != nil {
		return fmt.Errorf("не удалось определить согласующих подразделения %d: %w", departmentID, err)
	}

	var failed int
	for _, a := range approvers {
		if roleFilter != nil && !roleFilter(a.Role) {
			continue
		}
		if err := l.notificationService.Notify(ctx, a.ID, message, actorName, departmentID); err != nil {
			failed++
			l.logger.Error("не удалось доставить уведомление согласующему",
				zap.Uint64("recipientId", a.ID), zap.Error(err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("не доставлено %d из %d уведомлений", failed, len(approvers))
	}
	return nil
}

// resolveApprovers сначала смотрит в кеш, при промахе идёт в БД и кладёт
// результат с TTL. В ключе участвует поколение кеша: изменение состава
// HOD/админов инкрементирует его и делает недействительными списки всех
// подразделений сразу. Отказ кеша деградирует в прямой запрос к БД.
func (l *NotificationListener) resolveApprovers(ctx context.Context, departmentID uint64) ([]approverRef, error) {
	version, err := l.cacheRepo.Get(ctx, constants.CacheKeyApproversVersion)
	if err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Warn("кеш согласующих недоступен", zap.Error(err))
		return l.approversFromDB(ctx, departmentID, "")
	}
	if errors.Is(err, redis.Nil) {
		version = "0"
	}

	key := fmt.Sprintf(constants.CacheKeyApprovers, departmentID, version)

	if cached, err := l.cacheRepo.Get(ctx, key); err == nil {
		var refs []approverRef
		if err := json.Unmarshal([]byte(cached), &refs); err == nil {
			return refs, nil
		}
		l.logger.Warn("повреждённая запись в кеше согласующих", zap.String("key", key))
	}

	return l.approversFromDB(ctx, departmentID, key)
}

// approversFromDB читает согласующих из БД; при непустом ключе кладёт
// результат в кеш.
func (l *NotificationListener) approversFromDB(ctx context.Context, departmentID uint64, cacheKey string) ([]approverRef, error) {
	users, err := l.userRepo.FindApprovers(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	refs := make([]approverRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, approverRef{ID: u.ID, Role: u.Role})
	}

	if cacheKey == "" {
		return refs, nil
	}
	if payload, err := json.Marshal(refs); err == nil {
		if err := l.cacheRepo.Set(ctx, cacheKey, string(payload), approversCacheTTL); err != nil {
			l.logger.Warn("не удалось обновить кеш согласующих", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return refs, nil
}
