// Package vector holds similarity helpers and the pgvector-backed searcher.
package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"litreview/internal/models"
)

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Searcher runs nearest-neighbour queries against index_chunks.
type Searcher struct {
	q Queryer
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// Search returns the topK passages of one index ordered by cosine distance.
func (s *Searcher) Search(ctx context.Context, indexKey string, queryVec []float32, topK int) ([]models.Passage, error) {
	if topK <= 0 {
		topK = 4
	}
	const query = `
SELECT chunk_index,
       text,
       1 - (embedding <=> $2::vector) AS score
FROM index_chunks
WHERE index_key = $1
ORDER BY embedding <=> $2::vector
LIMIT $3`

	rows, err := s.q.Query(ctx, query, indexKey, ToLiteral(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.Passage, 0, topK)
	for rows.Next() {
		var p models.Passage
		if err := rows.Scan(&p.Index, &p.Text, &p.Score); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

// ToLiteral renders v in pgvector's text format.
func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseLiteral reads pgvector's text format back into a vector.
func ParseLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("invalid vector literal %q", DisplayLiteral(s))
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float32{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// DisplayLiteral shortens long literals for error messages.
func DisplayLiteral(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
