package repository

import (
	"context"
	"fmt"

	"GoldPulse/internal/domain/models"
	"GoldPulse/pkg/queue"
)

// OutcomeQueueJob consumes trade outcomes from the Redis queue and
// hands them to the outcome sink. It is the fallback intake for bot
// deployments without a Kafka broker.
type OutcomeQueueJob struct {
	sink OutcomeSink
}

// NewOutcomeQueueJob creates a queue job bound to the given sink.
func NewOutcomeQueueJob(sink OutcomeSink) *OutcomeQueueJob {
	return &OutcomeQueueJob{sink: sink}
}

// Name returns the unique identifier of the job.
func (j *OutcomeQueueJob) Name() string { return "outcome-apply" }

// Type returns the message type the job handles.
func (j *OutcomeQueueJob) Type() string { return "trade_outcome" }

// Handle parses the payload and applies the outcome.
func (j *OutcomeQueueJob) Handle(ctx context.Context, payload interface{}) error {
	out, err := queue.ParsePayload[models.Outcome](payload)
	if err != nil {
		return fmt.Errorf("parse outcome payload: %w", err)
	}
	if out.TradeID == "" {
		return fmt.Errorf("outcome missing trade id")
	}
	if out.Source == "" {
		out.Source = "redis"
	}
	if err := j.sink.Process(ctx, out); err != nil {
		return fmt.Errorf("apply outcome %s: %w", out.TradeID, err)
	}
	return nil
}
