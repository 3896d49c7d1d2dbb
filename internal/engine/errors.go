package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable — движок нельзя вызвать: нет скрипта, интерпретатора или сервера.
	ErrUnavailable = errors.New("engine unavailable")

	// ErrExecution — движок запустился, но сообщил об ошибке.
	ErrExecution = errors.New("engine execution failed")

	// ErrProtocol — ответ движка не соответствует ожидаемому формату.
	ErrProtocol = errors.New("engine protocol error")
)

// ExecutionError — ошибка выполнения движка с деталями.
//
// Для subprocess заполняется ExitCode, для server — StatusCode.
type ExecutionError struct {
	Strategy   Strategy
	ExitCode   int
	StatusCode int
	Message    string
}

// Error реализует интерфейс error.
func (e *ExecutionError) Error() string {
	var where string
	switch e.Strategy {
	case StrategyServer:
		where = fmt.Sprintf("server returned %d", e.StatusCode)
	default:
		where = fmt.Sprintf("bridge exited with code %d", e.ExitCode)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", ErrExecution, where)
	}
	return fmt.Sprintf("%s: %s: %s", ErrExecution, where, e.Message)
}

// Unwrap возвращает ErrExecution.
func (e *ExecutionError) Unwrap() error {
	return ErrExecution
}
