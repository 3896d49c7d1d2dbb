package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchItemOutcome — итог обработки одного файла в batch/parallel/watch.
//
// Ровно одно из Results / Error заполнено; Success ⇔ Error пуст.
// Создавайте через Succeeded / Failed, чтобы инвариант соблюдался.
type BatchItemOutcome struct {
	File    string   `json:"file"`
	Success bool     `json:"success"`
	Results []Region `json:"results,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Succeeded создаёт успешный outcome.
// nil results превращается в пустой срез, чтобы Results был «заполнен».
func Succeeded(file string, results []Region) BatchItemOutcome {
	if results == nil {
		results = []Region{}
	}
	return BatchItemOutcome{File: file, Success: true, Results: results}
}

// Failed создаёт outcome с ошибкой.
func Failed(file string, err error) BatchItemOutcome {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return BatchItemOutcome{File: file, Success: false, Error: msg}
}

// Mode — режим оркестрации, в котором получен outcome.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeBatch    Mode = "batch"
	ModeParallel Mode = "parallel"
	ModeWatch    Mode = "watch"
)

// OutcomeRecord — outcome вместе с контекстом запуска.
// Уходит во внешние sinks (PostgreSQL, RabbitMQ).
type OutcomeRecord struct {
	ID         uuid.UUID        `json:"id"`
	RunID      uuid.UUID        `json:"run_id"`
	Mode       Mode             `json:"mode"`
	Index      int              `json:"index"`
	Outcome    BatchItemOutcome `json:"outcome"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// NewOutcomeRecord создаёт запись с новым ID и текущим временем.
func NewOutcomeRecord(runID uuid.UUID, mode Mode, index int, outcome BatchItemOutcome) OutcomeRecord {
	return OutcomeRecord{
		ID:         uuid.New(),
		RunID:      runID,
		Mode:       mode,
		Index:      index,
		Outcome:    outcome,
		RecordedAt: time.Now().UTC(),
	}
}

// Summary — агрегированная статистика по набору outcomes.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Summarize считает успешные и неуспешные outcomes.
func Summarize(outcomes []BatchItemOutcome, took time.Duration) Summary {
	s := Summary{Total: len(outcomes), Duration: took}
	for _, o := range outcomes {
		if o.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
