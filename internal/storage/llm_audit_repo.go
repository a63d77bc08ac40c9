package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type LLMCallRecord struct {
	CallID    string
	Operation string
	Document  string
	Question  string
	Provider  string
	Model     string
	Status    string
	ErrorType string
	LatencyMS int64
}

type LLMAuditRepo struct {
	db DBTX
}

func NewLLMAuditRepo(db DBTX) *LLMAuditRepo {
	return &LLMAuditRepo{db: db}
}

func (r *LLMAuditRepo) Insert(ctx context.Context, rec LLMCallRecord) error {
	if rec.CallID == "" {
		rec.CallID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO llm_calls (call_id, operation, document, question, provider, model, status, error_type, latency_ms)
VALUES ($1::uuid, $2, NULLIF($3,''), NULLIF($4,''), $5, $6, $7, NULLIF($8,''), $9)`,
		rec.CallID, rec.Operation, rec.Document, rec.Question, rec.Provider, rec.Model, rec.Status, rec.ErrorType, rec.LatencyMS)
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}
