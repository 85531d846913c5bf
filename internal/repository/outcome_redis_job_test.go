package repository

import (
	"context"
	"encoding/json"
	"testing"

	"GoldPulse/internal/domain/models"
)

func TestOutcomeQueueJobIdentity(t *testing.T) {
	j := NewOutcomeQueueJob(sinkFunc(func(context.Context, *models.Outcome) error { return nil }))
	if j.Name() != "outcome-apply" {
		t.Fatalf("name = %q", j.Name())
	}
	if j.Type() != "trade_outcome" {
		t.Fatalf("type = %q", j.Type())
	}
}

func TestOutcomeQueueJobHandlesMapPayload(t *testing.T) {
	var got *models.Outcome
	j := NewOutcomeQueueJob(sinkFunc(func(_ context.Context, out *models.Outcome) error {
		got = out
		return nil
	}))

	payload := map[string]interface{}{"trade_id": "T-31", "pnl": 2.5}
	if err := j.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got == nil || got.TradeID != "T-31" || got.PnL != 2.5 {
		t.Fatalf("unexpected outcome %+v", got)
	}
	if got.Source != "redis" {
		t.Fatalf("source = %q, want redis", got.Source)
	}
}

func TestOutcomeQueueJobKeepsExplicitSource(t *testing.T) {
	var got *models.Outcome
	j := NewOutcomeQueueJob(sinkFunc(func(_ context.Context, out *models.Outcome) error {
		got = out
		return nil
	}))

	raw := json.RawMessage(`{"trade_id":"T-32","pnl":-1,"source":"mt5"}`)
	if err := j.Handle(context.Background(), raw); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got.Source != "mt5" {
		t.Fatalf("source = %q, want mt5", got.Source)
	}
}

func TestOutcomeQueueJobRejectsMissingTradeID(t *testing.T) {
	j := NewOutcomeQueueJob(sinkFunc(func(context.Context, *models.Outcome) error {
		t.Fatal("sink must not run")
		return nil
	}))
	if err := j.Handle(context.Background(), map[string]interface{}{"pnl": 1.0}); err == nil {
		t.Fatal("expected error for missing trade id")
	}
}

func TestOutcomeQueueJobRejectsBadPayload(t *testing.T) {
	j := NewOutcomeQueueJob(sinkFunc(func(context.Context, *models.Outcome) error { return nil }))
	if err := j.Handle(context.Background(), 42); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}
