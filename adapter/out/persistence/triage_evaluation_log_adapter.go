// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"triage_server/core/domain"
	"triage_server/core/port/out"
)

// =============================================================================
// Evaluation Log Adapter (PostgreSQL)
// =============================================================================

// EvaluationLogAdapter implements out.EvaluationLog using PostgreSQL.
// The table is append-only; rows are never updated or deleted, which makes
// it a safe source for rebuilding the consolidated aggregate.
type EvaluationLogAdapter struct {
	db *sqlx.DB
}

var _ out.EvaluationLog = (*EvaluationLogAdapter)(nil)

// NewEvaluationLogAdapter creates a new EvaluationLogAdapter.
func NewEvaluationLogAdapter(db *sqlx.DB) *EvaluationLogAdapter {
	return &EvaluationLogAdapter{db: db}
}

// EnsureSchema creates the evaluation_log table if it does not exist.
func (a *EvaluationLogAdapter) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS evaluation_log (
			id                BIGINT PRIMARY KEY,
			response_time_sec INTEGER NOT NULL,
			satisfaction      DOUBLE PRECISION NOT NULL,
			efficiency        DOUBLE PRECISION NOT NULL,
			assertiveness     DOUBLE PRECISION NOT NULL,
			nps               INTEGER NOT NULL,
			category          TEXT NOT NULL DEFAULT '',
			recorded_at       TIMESTAMPTZ NOT NULL
		)`

	_, err := a.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// Database Row Mapping
// =============================================================================

type evaluationRow struct {
	ID              int64     `db:"id"`
	ResponseTimeSec int       `db:"response_time_sec"`
	Satisfaction    float64   `db:"satisfaction"`
	Efficiency      float64   `db:"efficiency"`
	Assertiveness   float64   `db:"assertiveness"`
	NPS             int       `db:"nps"`
	Category        string    `db:"category"`
	RecordedAt      time.Time `db:"recorded_at"`
}

func (r *evaluationRow) toEntity() *domain.EvaluationRecord {
	return &domain.EvaluationRecord{
		ID:              r.ID,
		ResponseTimeSec: r.ResponseTimeSec,
		Satisfaction:    r.Satisfaction,
		Efficiency:      r.Efficiency,
		Assertiveness:   r.Assertiveness,
		NPS:             r.NPS,
		Category:        r.Category,
		Timestamp:       r.RecordedAt,
	}
}

// =============================================================================
// Operations
// =============================================================================

// Append inserts one evaluation. Re-appending the same ID is a no-op, so a
// retried publish never duplicates a row.
func (a *EvaluationLogAdapter) Append(ctx context.Context, rec *domain.EvaluationRecord) error {
	query := `
		INSERT INTO evaluation_log (id, response_time_sec, satisfaction, efficiency, assertiveness, nps, category, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	_, err := a.db.ExecContext(ctx, query,
		rec.ID,
		rec.ResponseTimeSec,
		rec.Satisfaction,
		rec.Efficiency,
		rec.Assertiveness,
		rec.NPS,
		rec.Category,
		rec.Timestamp,
	)
	return err
}

// ListAll returns every archived evaluation in insertion (ID) order.
func (a *EvaluationLogAdapter) ListAll(ctx context.Context) ([]*domain.EvaluationRecord, error) {
	var rows []evaluationRow
	query := `
		SELECT id, response_time_sec, satisfaction, efficiency, assertiveness, nps, category, recorded_at
		FROM evaluation_log
		ORDER BY id`

	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	records := make([]*domain.EvaluationRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toEntity()
	}
	return records, nil
}
