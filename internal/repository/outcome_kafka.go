package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"GoldPulse/internal/domain/models"
	pkgkafka "GoldPulse/pkg/kafka"
)

// KafkaUpdatePublisher broadcasts applied outcome records so sibling
// processes can refresh their view of the learned state.
type KafkaUpdatePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaUpdatePublisher builds the broadcast publisher.
func NewKafkaUpdatePublisher(producer *pkgkafka.Producer, topic string) *KafkaUpdatePublisher {
	return &KafkaUpdatePublisher{producer: producer, topic: topic}
}

func (p *KafkaUpdatePublisher) Publish(ctx context.Context, rec *models.OutcomeRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Symbol), rec)
}

func (p *KafkaUpdatePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// OutcomeSink accepts validated outcomes, normally the intake pipeline.
type OutcomeSink interface {
	Process(ctx context.Context, out *models.Outcome) error
}

// OutcomeEventHandler consumes trade close events from the outcomes
// topic and feeds them into the intake pipeline. Malformed payloads
// are rejected so the consumer retry/DLQ machinery can take over.
type OutcomeEventHandler struct {
	topic string
	sink  OutcomeSink
}

// NewOutcomeEventHandler builds the consumer-side handler.
func NewOutcomeEventHandler(topic string, sink OutcomeSink) *OutcomeEventHandler {
	return &OutcomeEventHandler{topic: topic, sink: sink}
}

func (h *OutcomeEventHandler) Topic() string { return h.topic }

func (h *OutcomeEventHandler) Handle(ctx context.Context, data []byte) error {
	var out models.Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decode outcome event: %w", err)
	}
	if out.TradeID == "" {
		return fmt.Errorf("outcome event missing trade id")
	}
	if out.Source == "" {
		out.Source = "kafka"
	}
	if err := h.sink.Process(ctx, &out); err != nil {
		return fmt.Errorf("process outcome %s: %w", out.TradeID, err)
	}
	return nil
}
