package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"litreview/internal/models"
	"litreview/internal/vector"
)

// IndexMeta identifies what an index was built from.
type IndexMeta struct {
	Key       string
	Model     string
	Dim       int
	SourceSHA string
}

type IndexChunkRepo struct {
	db DBTX
}

func NewIndexChunkRepo(db DBTX) *IndexChunkRepo {
	return &IndexChunkRepo{db: db}
}

func (r *IndexChunkRepo) Meta(ctx context.Context, key string) (IndexMeta, bool, error) {
	m := IndexMeta{Key: key}
	err := r.db.QueryRow(ctx, `SELECT model, dim, source_sha FROM indexes WHERE index_key = $1`, key).
		Scan(&m.Model, &m.Dim, &m.SourceSHA)
	if errors.Is(err, pgx.ErrNoRows) {
		return IndexMeta{}, false, nil
	}
	if err != nil {
		return IndexMeta{}, false, fmt.Errorf("get index meta %s: %w", key, err)
	}
	return m, true, nil
}

// Replace drops any previous index under meta.Key and writes the new chunks in
// one transaction.
func (r *IndexChunkRepo) Replace(ctx context.Context, meta IndexMeta, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("index %s: %d texts for %d vectors", meta.Key, len(texts), len(vectors))
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx replace index: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM indexes WHERE index_key = $1`, meta.Key); err != nil {
		return fmt.Errorf("delete index %s: %w", meta.Key, err)
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO indexes (index_key, model, dim, source_sha)
VALUES ($1, $2, $3, $4)`, meta.Key, meta.Model, meta.Dim, meta.SourceSHA); err != nil {
		return fmt.Errorf("insert index %s: %w", meta.Key, err)
	}
	for i := range texts {
		if _, err := tx.Exec(ctx, `
INSERT INTO index_chunks (index_key, chunk_index, text, embedding)
VALUES ($1, $2, $3, $4::vector)`, meta.Key, i, texts[i], vector.ToLiteral(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %d of %s: %w", i, meta.Key, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}
	return nil
}

// Load returns chunk texts and vectors in chunk order.
func (r *IndexChunkRepo) Load(ctx context.Context, key string) ([]string, [][]float32, error) {
	rows, err := r.db.Query(ctx, `
SELECT text, embedding::text
FROM index_chunks
WHERE index_key = $1
ORDER BY chunk_index ASC`, key)
	if err != nil {
		return nil, nil, fmt.Errorf("load index %s: %w", key, err)
	}
	defer rows.Close()
	var (
		texts []string
		vecs  [][]float32
	)
	for rows.Next() {
		var text, lit string
		if err := rows.Scan(&text, &lit); err != nil {
			return nil, nil, fmt.Errorf("scan index chunk: %w", err)
		}
		v, err := vector.ParseLiteral(lit)
		if err != nil {
			return nil, nil, err
		}
		texts = append(texts, text)
		vecs = append(vecs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate index chunks: %w", err)
	}
	return texts, vecs, nil
}

func (r *IndexChunkRepo) Search(ctx context.Context, key string, query []float32, topK int) ([]models.Passage, error) {
	return vector.NewSearcher(r.db).Search(ctx, key, query, topK)
}

func (r *IndexChunkRepo) Count(ctx context.Context, key string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM index_chunks WHERE index_key = $1`, key).Scan(&n); err != nil {
		return 0, fmt.Errorf("count index chunks: %w", err)
	}
	return n, nil
}
