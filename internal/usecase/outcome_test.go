package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"GoldPulse/internal/domain/models"
)

type memAudit struct {
	rows      []*models.OutcomeRecord
	appendErr error
}

func (a *memAudit) Append(_ context.Context, rec *models.OutcomeRecord) error {
	if a.appendErr != nil {
		return a.appendErr
	}
	a.rows = append(a.rows, rec)
	return nil
}

func (a *memAudit) Recent(_ context.Context, symbol string, limit int) ([]*models.OutcomeRecord, error) {
	var out []*models.OutcomeRecord
	for i := len(a.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if a.rows[i].Symbol == symbol {
			out = append(out, a.rows[i])
		}
	}
	return out, nil
}

func (a *memAudit) Health(_ context.Context) error { return nil }
func (a *memAudit) Close() error                   { return nil }

type memPublisher struct {
	published []*models.OutcomeRecord
	err       error
}

func (p *memPublisher) Publish(_ context.Context, rec *models.OutcomeRecord) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, rec)
	return nil
}

func (p *memPublisher) Close() error { return nil }

func pendingScorer(tradeID string) *stubScorer {
	s := newStubScorer(0.6)
	s.records[tradeID] = &models.OutcomeRecord{
		Ts:      time.Now(),
		TradeID: tradeID,
		Symbol:  "XAUUSD",
		PnL:     12.5,
		Success: true,
	}
	return s
}

func TestApplyFansOutToAuditAndPublisher(t *testing.T) {
	scorer := pendingScorer("T-1")
	audit := &memAudit{}
	pub := &memPublisher{}
	p := NewOutcomeProcessor(scorer, audit, pub, nil, nil)

	rec, ok := p.Apply(context.Background(), &models.Outcome{TradeID: "T-1", PnL: 12.5, Source: "kafka"})
	if !ok {
		t.Fatalf("expected a pending decision to be applied")
	}
	if rec.Source != "kafka" {
		t.Fatalf("source = %q, want kafka", rec.Source)
	}
	if len(audit.rows) != 1 || audit.rows[0].TradeID != "T-1" {
		t.Fatalf("audit row missing: %+v", audit.rows)
	}
	if len(pub.published) != 1 {
		t.Fatalf("broadcast missing")
	}
}

func TestApplyUnknownTradeIDIsQuietNoOp(t *testing.T) {
	scorer := newStubScorer(0.6)
	audit := &memAudit{}
	p := NewOutcomeProcessor(scorer, audit, nil, nil, nil)

	rec, ok := p.Apply(context.Background(), &models.Outcome{TradeID: "ghost", PnL: 1})
	if ok || rec != nil {
		t.Fatalf("unknown trade id must be a no-op")
	}
	if len(audit.rows) != 0 {
		t.Fatalf("no-op must not write audit rows")
	}
}

func TestApplySurvivesAuditFailure(t *testing.T) {
	scorer := pendingScorer("T-2")
	audit := &memAudit{appendErr: errors.New("clickhouse down")}
	pub := &memPublisher{}
	p := NewOutcomeProcessor(scorer, audit, pub, nil, nil)

	rec, ok := p.Apply(context.Background(), &models.Outcome{TradeID: "T-2", PnL: 5})
	if !ok || rec == nil {
		t.Fatalf("audit failure must not block the learning update")
	}
	if len(pub.published) != 1 {
		t.Fatalf("broadcast must still happen after audit failure")
	}
}

func TestApplySurvivesPublisherFailure(t *testing.T) {
	scorer := pendingScorer("T-3")
	pub := &memPublisher{err: errors.New("kafka down")}
	p := NewOutcomeProcessor(scorer, nil, pub, nil, nil)

	if _, ok := p.Apply(context.Background(), &models.Outcome{TradeID: "T-3", PnL: 5}); !ok {
		t.Fatalf("publisher failure must not block the learning update")
	}
}

func TestApplyConsumesPendingExactlyOnce(t *testing.T) {
	scorer := pendingScorer("T-4")
	p := NewOutcomeProcessor(scorer, nil, nil, nil, nil)

	if _, ok := p.Apply(context.Background(), &models.Outcome{TradeID: "T-4", PnL: 5}); !ok {
		t.Fatalf("first apply must succeed")
	}
	if _, ok := p.Apply(context.Background(), &models.Outcome{TradeID: "T-4", PnL: 5}); ok {
		t.Fatalf("second apply must be a no-op")
	}
}

func TestRecentReadsAudit(t *testing.T) {
	audit := &memAudit{rows: []*models.OutcomeRecord{
		{TradeID: "a", Symbol: "XAUUSD"},
		{TradeID: "b", Symbol: "EURUSD"},
		{TradeID: "c", Symbol: "XAUUSD"},
	}}
	p := NewOutcomeProcessor(newStubScorer(0.5), audit, nil, nil, nil)

	rows, err := p.Recent(context.Background(), "XAUUSD", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(rows) != 2 || rows[0].TradeID != "c" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
