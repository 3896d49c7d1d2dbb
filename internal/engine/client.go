package engine

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/telemetry"
)

// DefaultInterpreter — интерпретатор Python по умолчанию.
const DefaultInterpreter = "python3"

// InterpreterEnv — переменная окружения, переопределяющая интерпретатор.
const InterpreterEnv = "GLYPH_PYTHON"

// Interpreter возвращает $GLYPH_PYTHON или DefaultInterpreter.
func Interpreter() string {
	if p := os.Getenv(InterpreterEnv); p != "" {
		return p
	}
	return DefaultInterpreter
}

// Strategy — способ вызова движка.
type Strategy string

const (
	StrategySubprocess Strategy = "subprocess"
	StrategyServer     Strategy = "server"
)

// Client распознаёт текст на одном изображении.
//
// Реализации не хранят состояния между вызовами и безопасны
// для параллельного использования.
type Client interface {
	Invoke(ctx context.Context, req domain.Request) ([]domain.Region, error)
}

// Options — параметры выбора стратегии.
type Options struct {
	// UseServer выбирает server-стратегию.
	UseServer bool

	// ServerURL — базовый адрес сервера, например http://127.0.0.1:8000.
	ServerURL string

	// Interpreter — интерпретатор для bridge-скрипта. По умолчанию python3.
	Interpreter string

	// Locator ищет bridge-скрипт.
	Locator Locator

	// HTTPClient для server-стратегии. По умолчанию — клиент без таймаута:
	// первый запрос может ждать загрузки модели.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// New создаёт клиента выбранной стратегии.
//
// Стратегия выбирается один раз: ошибки вызова не приводят
// к переключению на другую стратегию.
func New(opts Options) Client {
	if opts.UseServer {
		return Instrument(NewServerClient(opts.ServerURL, opts.HTTPClient, opts.Logger), StrategyServer)
	}
	return Instrument(NewSubprocessClient(opts.Locator, opts.Interpreter, opts.Logger), StrategySubprocess)
}

// Instrumented — Client с учётом метрик.
type Instrumented struct {
	next     Client
	strategy Strategy
}

// Instrument оборачивает клиента метриками glyph_engine_requests_total.
func Instrument(next Client, strategy Strategy) *Instrumented {
	return &Instrumented{next: next, strategy: strategy}
}

// Strategy возвращает стратегию обёрнутого клиента.
func (c *Instrumented) Strategy() Strategy {
	return c.strategy
}

// Invoke делегирует вызов и учитывает результат.
func (c *Instrumented) Invoke(ctx context.Context, req domain.Request) ([]domain.Region, error) {
	started := time.Now()
	regions, err := c.next.Invoke(ctx, req)
	telemetry.ObserveEngineRequest(string(c.strategy), started, err)
	return regions, err
}
