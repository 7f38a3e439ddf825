package errors

// HttpError - транспортная обёртка над доменной ошибкой.
// Message уходит клиенту, Err и Context остаются в логах,
// Details (если есть) попадает в body ответа - например, текущий
// держатель актива при ErrAssetNoLongerAvailable.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func NewHttpError(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
