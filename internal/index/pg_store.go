package index

import (
	"context"

	"litreview/internal/models"
	"litreview/internal/storage"
)

// PGStore keeps indexes in Postgres and searches them with pgvector.
type PGStore struct {
	repo *storage.IndexChunkRepo
}

func NewPGStore(repo *storage.IndexChunkRepo) *PGStore {
	return &PGStore{repo: repo}
}

func (s *PGStore) Load(ctx context.Context, key string) (SearchIndex, Meta, bool, error) {
	m, ok, err := s.repo.Meta(ctx, key)
	if err != nil || !ok {
		return nil, Meta{}, false, err
	}
	n, err := s.repo.Count(ctx, key)
	if err != nil {
		return nil, Meta{}, false, err
	}
	return &pgIndex{repo: s.repo, key: key, n: n}, Meta{Model: m.Model, Dim: m.Dim, SourceSHA: m.SourceSHA}, true, nil
}

func (s *PGStore) Save(ctx context.Context, key string, meta Meta, texts []string, vectors [][]float32) (SearchIndex, error) {
	err := s.repo.Replace(ctx, storage.IndexMeta{Key: key, Model: meta.Model, Dim: meta.Dim, SourceSHA: meta.SourceSHA}, texts, vectors)
	if err != nil {
		return nil, err
	}
	return &pgIndex{repo: s.repo, key: key, n: len(texts)}, nil
}

type pgIndex struct {
	repo *storage.IndexChunkRepo
	key  string
	n    int
}

func (p *pgIndex) Search(ctx context.Context, query []float32, k int) ([]models.Passage, error) {
	return p.repo.Search(ctx, p.key, query, k)
}

func (p *pgIndex) Len() int { return p.n }
