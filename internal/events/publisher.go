// Package events publishes per-document review outcomes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"litreview/internal/config"
	"litreview/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, ev models.DocumentEvent) error
	Close() error
}

// New returns a Kafka publisher when enabled, otherwise a no-op.
func New(cfg config.KafkaConfig, logger zerolog.Logger) Publisher {
	if !cfg.Enabled {
		return NopPublisher{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return NewKafkaPublisher(w, logger)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.DocumentEvent) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per event, keyed by filename so a
// document's events stay ordered within a partition.
type KafkaPublisher struct {
	w      messageWriter
	logger zerolog.Logger
}

func NewKafkaPublisher(w messageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{w: w, logger: logger.With().Str("component", "events").Logger()}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev models.DocumentEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode document event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.Filename),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("document." + string(ev.Status))},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish document event: %w", err)
	}
	p.logger.Debug().Str("document", ev.Filename).Str("status", string(ev.Status)).Msg("published document event")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
