package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не активен")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")
	ErrTooManyAttempts    = fmt.Errorf("слишком много попыток входа, попробуйте позже")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")
	ErrInvalidUserID           = fmt.Errorf("недопустимый UserID")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
	ErrTimeout    = fmt.Errorf("хранилище не ответило за отведённое время")

	// Рабочий процесс активов.
	// Эти ошибки возвращаются движком согласования и несут смысл для UI:
	// их нельзя "ретраить" вслепую, оператор должен увидеть причину.
	ErrAlreadyAssigned        = fmt.Errorf("актив уже закреплён за другим сотрудником")
	ErrAssetUnavailable       = fmt.Errorf("актив недоступен для запроса")
	ErrAssetNoLongerAvailable = fmt.Errorf("актив уже занят конкурирующим решением")
	ErrAssetAssigned          = fmt.Errorf("нельзя удалить закреплённый актив")
	ErrInvalidTransition      = fmt.Errorf("недопустимый переход статуса")
	ErrMissingComment         = fmt.Errorf("комментарий обязателен при отклонении")
	ErrNotUnderMaintenance    = fmt.Errorf("актив не находится на обслуживании")
)

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
