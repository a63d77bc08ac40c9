package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"litreview/internal/models"
)

// CheckpointRepo stores per-document answers of a review run. Runs are keyed by
// their output path so several reviews can share a database.
type CheckpointRepo struct {
	db DBTX
}

func NewCheckpointRepo(db DBTX) *CheckpointRepo {
	return &CheckpointRepo{db: db}
}

func (r *CheckpointRepo) Get(ctx context.Context, runKey, filename string) ([]models.AnswerRecord, bool, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
SELECT records FROM review_checkpoints WHERE run_key = $1 AND filename = $2`, runKey, filename).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get checkpoint %s: %w", filename, err)
	}
	var recs []models.AnswerRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, false, fmt.Errorf("decode checkpoint %s: %w", filename, err)
	}
	return recs, true, nil
}

func (r *CheckpointRepo) Put(ctx context.Context, runKey, filename string, records []models.AnswerRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", filename, err)
	}
	_, err = r.db.Exec(ctx, `
INSERT INTO review_checkpoints (run_key, filename, status, records, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (run_key, filename)
DO UPDATE SET status = EXCLUDED.status, records = EXCLUDED.records, updated_at = now()`,
		runKey, filename, string(models.StatusOf(records)), raw)
	if err != nil {
		return fmt.Errorf("upsert checkpoint %s: %w", filename, err)
	}
	return nil
}

func (r *CheckpointRepo) All(ctx context.Context, runKey string) (map[string][]models.AnswerRecord, error) {
	rows, err := r.db.Query(ctx, `
SELECT filename, records FROM review_checkpoints WHERE run_key = $1 ORDER BY filename`, runKey)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()
	out := map[string][]models.AnswerRecord{}
	for rows.Next() {
		var (
			name string
			raw  []byte
		)
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		var recs []models.AnswerRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("decode checkpoint %s: %w", name, err)
		}
		out[name] = recs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return out, nil
}
