package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"GoldPulse/internal/domain/models"
)

type recordingSink struct {
	mu      sync.Mutex
	applied []*models.Outcome
}

func (s *recordingSink) Apply(_ context.Context, out *models.Outcome) (*models.OutcomeRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, out)
	return &models.OutcomeRecord{TradeID: out.TradeID}, true
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

func TestProcessAppliesValidOutcome(t *testing.T) {
	sink := &recordingSink{}
	p := NewOutcomePipeline(sink, nil)

	err := p.Process(context.Background(), &models.Outcome{TradeID: "T-1", PnL: 3})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("applied = %d, want 1", sink.count())
	}
}

func TestProcessRejectsInvalidOutcome(t *testing.T) {
	sink := &recordingSink{}
	p := NewOutcomePipeline(sink, nil)

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil outcome must error")
	}
	if err := p.Process(context.Background(), &models.Outcome{}); err == nil {
		t.Fatalf("empty trade id must error")
	}
	if sink.count() != 0 {
		t.Fatalf("invalid outcomes must not reach the sink")
	}
}

func TestProcessDeduplicatesTradeID(t *testing.T) {
	sink := &recordingSink{}
	p := NewOutcomePipeline(sink, nil)

	out := &models.Outcome{TradeID: "T-1", PnL: 3}
	if err := p.Process(context.Background(), out); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	if err := p.Process(context.Background(), out); err != nil {
		t.Fatalf("duplicate Process must not error: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("duplicate must be dropped, applied = %d", sink.count())
	}
}

func TestDedupWindowExpires(t *testing.T) {
	sink := &recordingSink{}
	p := NewOutcomePipeline(sink, nil, WithDedupTTL(10*time.Millisecond))

	out := &models.Outcome{TradeID: "T-1", PnL: 3}
	if err := p.Process(context.Background(), out); err != nil {
		t.Fatalf("Process: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := p.Process(context.Background(), out); err != nil {
		t.Fatalf("Process after expiry: %v", err)
	}
	if sink.count() != 2 {
		t.Fatalf("expired dedup entry must allow reprocessing, applied = %d", sink.count())
	}
}

func TestEnqueueDrainsInBackground(t *testing.T) {
	sink := &recordingSink{}
	p := NewOutcomePipeline(sink, nil, WithBufferSize(8))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	if !p.Enqueue(&models.Outcome{TradeID: "T-1", PnL: 1}) {
		t.Fatalf("Enqueue rejected a valid outcome")
	}

	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("buffered outcome never drained")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEnqueueFullBufferRejected(t *testing.T) {
	sink := &recordingSink{}
	p := NewOutcomePipeline(sink, nil, WithBufferSize(1))
	// Not started, so the buffer never drains.
	if !p.Enqueue(&models.Outcome{TradeID: "T-1"}) {
		t.Fatalf("first enqueue should fit")
	}
	if p.Enqueue(&models.Outcome{TradeID: "T-2"}) {
		t.Fatalf("second enqueue should report a full buffer")
	}
	if p.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", p.Depth())
	}
}

func TestStartStopIdempotent(t *testing.T) {
	p := NewOutcomePipeline(&recordingSink{}, nil)
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	p.Stop()
	p.Stop()
}
