package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Glyph/internal/domain"
)

// schema — DDL таблицы outcomes.
const schema = `
	CREATE TABLE IF NOT EXISTS ocr_outcomes (
		id          UUID PRIMARY KEY,
		run_id      UUID NOT NULL,
		mode        TEXT NOT NULL,
		item_index  INTEGER NOT NULL,
		file        TEXT NOT NULL,
		success     BOOLEAN NOT NULL,
		results     JSONB,
		error       TEXT,
		recorded_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS ocr_outcomes_run_id_idx ON ocr_outcomes (run_id, item_index);
`

// OutcomeRepo — репозиторий outcomes.
type OutcomeRepo struct {
	pool *pgxpool.Pool
}

// NewOutcomeRepo создаёт новый OutcomeRepo.
func NewOutcomeRepo(pool *pgxpool.Pool) *OutcomeRepo {
	return &OutcomeRepo{pool: pool}
}

// EnsureSchema создаёт таблицу, если её нет.
func (r *OutcomeRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Record сохраняет outcome.
func (r *OutcomeRepo) Record(ctx context.Context, rec domain.OutcomeRecord) error {
	resultsJSON, err := marshalResults(rec.Outcome)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ocr_outcomes (id, run_id, mode, item_index, file, success, results, error, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.RunID,
		string(rec.Mode),
		rec.Index,
		rec.Outcome.File,
		rec.Outcome.Success,
		resultsJSON,
		nullString(rec.Outcome.Error),
		rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// ListByRun возвращает outcomes запуска в порядке входных файлов.
func (r *OutcomeRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.OutcomeRecord, error) {
	query := `
		SELECT id, run_id, mode, item_index, file, success, results, error, recorded_at
		FROM ocr_outcomes
		WHERE run_id = $1
		ORDER BY item_index
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var records []domain.OutcomeRecord
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func scanOutcome(row pgx.Row) (*domain.OutcomeRecord, error) {
	var (
		rec         domain.OutcomeRecord
		mode        string
		resultsJSON []byte
		errText     *string
	)
	err := row.Scan(
		&rec.ID,
		&rec.RunID,
		&mode,
		&rec.Index,
		&rec.Outcome.File,
		&rec.Outcome.Success,
		&resultsJSON,
		&errText,
		&rec.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan outcome: %w", err)
	}

	rec.Mode = domain.Mode(mode)
	if errText != nil {
		rec.Outcome.Error = *errText
	}
	if resultsJSON != nil {
		if err := json.Unmarshal(resultsJSON, &rec.Outcome.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
	}
	return &rec, nil
}

// marshalResults возвращает JSON результатов или nil для неуспешного outcome.
func marshalResults(o domain.BatchItemOutcome) ([]byte, error) {
	if !o.Success {
		return nil, nil
	}
	data, err := json.Marshal(o.Results)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return data, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
