package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"litreview/internal/storage"
	"litreview/internal/util"
)

// SQLiteStore keeps one SQLite file per index under <dir>/index/<key>/index.db.
type SQLiteStore struct {
	dir string
}

func NewSQLiteStore(cacheDir string) *SQLiteStore {
	return &SQLiteStore{dir: filepath.Join(cacheDir, "index")}
}

func (s *SQLiteStore) path(key string) string {
	return filepath.Join(util.SafeJoin(s.dir, key), "index.db")
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (SearchIndex, Meta, bool, error) {
	path := s.path(key)
	if !util.FileExists(path) {
		return nil, Meta{}, false, nil
	}
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, Meta{}, false, err
	}
	defer db.Close()

	// A file without its tables is an interrupted build and counts as a miss.
	var meta Meta
	err = db.QueryRowContext(ctx, `SELECT model, dim, source_sha FROM meta LIMIT 1`).Scan(&meta.Model, &meta.Dim, &meta.SourceSHA)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Meta{}, false, ctxErr
		}
		return nil, Meta{}, false, nil
	}
	rows, err := db.QueryContext(ctx, `SELECT text, embedding FROM chunks ORDER BY idx`)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Meta{}, false, ctxErr
		}
		return nil, Meta{}, false, nil
	}
	defer rows.Close()
	var (
		texts []string
		vecs  [][]float32
	)
	for rows.Next() {
		var (
			text string
			blob []byte
		)
		if err := rows.Scan(&text, &blob); err != nil {
			return nil, Meta{}, false, fmt.Errorf("scan index chunk: %w", err)
		}
		v, err := decodeVector(blob)
		if err != nil {
			return nil, Meta{}, false, fmt.Errorf("index %s: %w", key, err)
		}
		texts = append(texts, text)
		vecs = append(vecs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, Meta{}, false, fmt.Errorf("iterate index chunks: %w", err)
	}
	idx, err := NewFlatIndex(texts, vecs)
	if err != nil {
		return nil, Meta{}, false, err
	}
	return idx, meta, true, nil
}

// Save builds the index in a temporary file and renames it over any existing
// one, so a reader never sees a half-written index.
func (s *SQLiteStore) Save(ctx context.Context, key string, meta Meta, texts []string, vectors [][]float32) (SearchIndex, error) {
	idx, err := NewFlatIndex(texts, vectors)
	if err != nil {
		return nil, err
	}
	path := s.path(key)
	tmp := path + ".tmp"
	if err := removeSQLiteFiles(tmp); err != nil {
		return nil, err
	}
	if err := writeIndexFile(ctx, tmp, meta, texts, vectors); err != nil {
		_ = removeSQLiteFiles(tmp)
		return nil, err
	}
	if err := removeSQLiteFiles(path); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("rename index %s: %w", key, err)
	}
	return idx, nil
}

func writeIndexFile(ctx context.Context, path string, meta Meta, texts []string, vectors [][]float32) error {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	stmts := []string{
		`CREATE TABLE meta (model TEXT NOT NULL, dim INTEGER NOT NULL, source_sha TEXT NOT NULL)`,
		`CREATE TABLE chunks (idx INTEGER PRIMARY KEY, text TEXT NOT NULL, embedding BLOB NOT NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (model, dim, source_sha) VALUES (?, ?, ?)`, meta.Model, meta.Dim, meta.SourceSHA); err != nil {
		return fmt.Errorf("write index meta: %w", err)
	}
	for i := range texts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chunks (idx, text, embedding) VALUES (?, ?, ?)`, i, texts[i], encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("write index chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}
	return db.Close()
}

func removeSQLiteFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale index %s: %w", p, err)
		}
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob of %d bytes is not float32 aligned", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, nil
}
