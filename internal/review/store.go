package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"litreview/internal/models"
	"litreview/internal/storage"
	"litreview/internal/util"
)

// Store is the checkpoint: a filename present in it has been attempted.
type Store interface {
	Get(ctx context.Context, filename string) ([]models.AnswerRecord, bool, error)
	Put(ctx context.Context, filename string, records []models.AnswerRecord) error
	All(ctx context.Context) (map[string][]models.AnswerRecord, error)
	Close() error
}

// StoreOpener opens the checkpoint belonging to an output path.
type StoreOpener func(ctx context.Context, outputPath string) (Store, error)

// JSONStore keeps the whole checkpoint in one JSON object, rewritten
// atomically after every document.
type JSONStore struct {
	path    string
	records map[string][]models.AnswerRecord
}

func OpenJSONStore(_ context.Context, path string) (Store, error) {
	s := &JSONStore{path: path, records: map[string][]models.AnswerRecord{}}
	b, ok, err := util.ReadFileIfExists(path)
	if err != nil {
		return nil, err
	}
	if ok && len(strings.TrimSpace(string(b))) > 0 {
		if err := json.Unmarshal(b, &s.records); err != nil {
			return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *JSONStore) Get(_ context.Context, filename string) ([]models.AnswerRecord, bool, error) {
	recs, ok := s.records[filename]
	return recs, ok, nil
}

// Put only updates the in-memory view once the file write succeeded.
func (s *JSONStore) Put(_ context.Context, filename string, records []models.AnswerRecord) error {
	next := make(map[string][]models.AnswerRecord, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	next[filename] = records
	if err := util.WriteJSONAtomic(s.path, next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func (s *JSONStore) All(context.Context) (map[string][]models.AnswerRecord, error) {
	out := make(map[string][]models.AnswerRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

func (s *JSONStore) Close() error { return nil }

// SQLiteStore upserts one row per document into <output without ext>.db.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(ctx context.Context, outputPath string) (Store, error) {
	path := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".db"
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS checkpoints (
    filename TEXT PRIMARY KEY,
    status   TEXT NOT NULL,
    records  TEXT NOT NULL
)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create checkpoint table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, filename string) ([]models.AnswerRecord, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT records FROM checkpoints WHERE filename = ?`, filename).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get checkpoint %s: %w", filename, err)
	}
	var recs []models.AnswerRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, false, fmt.Errorf("decode checkpoint %s: %w", filename, err)
	}
	return recs, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, filename string, records []models.AnswerRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", filename, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO checkpoints (filename, status, records) VALUES (?, ?, ?)
ON CONFLICT (filename) DO UPDATE SET status = excluded.status, records = excluded.records`,
		filename, string(models.StatusOf(records)), string(raw))
	if err != nil {
		return fmt.Errorf("upsert checkpoint %s: %w", filename, err)
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context) (map[string][]models.AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename, records FROM checkpoints ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()
	out := map[string][]models.AnswerRecord{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		var recs []models.AnswerRecord
		if err := json.Unmarshal([]byte(raw), &recs); err != nil {
			return nil, fmt.Errorf("decode checkpoint %s: %w", name, err)
		}
		out[name] = recs
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// PGStore scopes a shared Postgres checkpoint table to one output path.
type PGStore struct {
	repo   *storage.CheckpointRepo
	runKey string
}

// PGStoreOpener binds repo to the output path of each run.
func PGStoreOpener(repo *storage.CheckpointRepo) StoreOpener {
	return func(_ context.Context, outputPath string) (Store, error) {
		return &PGStore{repo: repo, runKey: outputPath}, nil
	}
}

func (s *PGStore) Get(ctx context.Context, filename string) ([]models.AnswerRecord, bool, error) {
	return s.repo.Get(ctx, s.runKey, filename)
}

func (s *PGStore) Put(ctx context.Context, filename string, records []models.AnswerRecord) error {
	return s.repo.Put(ctx, s.runKey, filename, records)
}

func (s *PGStore) All(ctx context.Context) (map[string][]models.AnswerRecord, error) {
	return s.repo.All(ctx, s.runKey)
}

func (s *PGStore) Close() error { return nil }
