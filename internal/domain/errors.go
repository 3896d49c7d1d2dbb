package domain

import "errors"

// ErrValidation — некорректные входные параметры (detail, формат вывода, отсутствующий input).
var ErrValidation = errors.New("validation failed")

// ValidationError — ошибка валидации с указанием поля.
type ValidationError struct {
	Field   string // поле или флаг, вызвавший ошибку
	Message string // описание ошибки
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Unwrap позволяет проверять errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
