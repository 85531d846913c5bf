package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GoldPulse/internal/domain/models"
	domrepo "GoldPulse/internal/domain/repository"
)

// OutcomeSink is the downstream the pipeline feeds, normally the
// outcome processor.
type OutcomeSink interface {
	Apply(ctx context.Context, out *models.Outcome) (*models.OutcomeRecord, bool)
}

// OutcomePipeline sits between the outcome transports (HTTP, Kafka)
// and the feedback engine. It validates, deduplicates per trade id,
// and buffers when a downstream side effect keeps failing so a burst
// of closes never stalls a consumer.
type OutcomePipeline struct {
	sink    OutcomeSink
	metrics domrepo.Metrics

	bufSize  int
	dedupTTL time.Duration

	bufCh   chan *models.Outcome
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	seen    map[string]time.Time // trade id -> first accepted time
}

type PipelineOption func(*OutcomePipeline)

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *OutcomePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithDedupTTL sets how long an applied trade id is remembered.
func WithDedupTTL(d time.Duration) PipelineOption {
	return func(p *OutcomePipeline) {
		if d > 0 {
			p.dedupTTL = d
		}
	}
}

// NewOutcomePipeline creates the intake pipeline.
func NewOutcomePipeline(sink OutcomeSink, metrics domrepo.Metrics, opts ...PipelineOption) *OutcomePipeline {
	p := &OutcomePipeline{
		sink:     sink,
		metrics:  metrics,
		bufSize:  1000,
		dedupTTL: time.Hour,
		stopCh:   make(chan struct{}),
		seen:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Outcome, p.bufSize)
	return p
}

// Start launches background draining of buffered outcomes.
func (p *OutcomePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.pruneSeen(time.Now())
			case out := <-p.bufCh:
				if out == nil {
					continue
				}
				p.sink.Apply(ctx, out)
			}
		}
	}()
}

// Stop halts background draining.
func (p *OutcomePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and deduplicates one outcome, then hands it to the
// feedback engine. Duplicate trade ids inside the dedup window are
// dropped silently: transports may redeliver, the Beta update must
// apply once.
func (p *OutcomePipeline) Process(ctx context.Context, out *models.Outcome) error {
	start := time.Now()
	if err := validateOutcome(out); err != nil {
		p.recordError("outcome_validate")
		return err
	}
	if !p.firstSeen(out.TradeID, start) {
		p.recordError("outcome_duplicate")
		return nil
	}

	p.sink.Apply(ctx, out)
	if p.metrics != nil {
		p.metrics.RecordLatency("outcome_pipeline", time.Since(start).Seconds())
	}
	return nil
}

// Enqueue buffers an outcome for asynchronous draining instead of
// applying it inline. Returns false when the buffer is full.
func (p *OutcomePipeline) Enqueue(out *models.Outcome) bool {
	if err := validateOutcome(out); err != nil {
		p.recordError("outcome_validate")
		return false
	}
	if !p.firstSeen(out.TradeID, time.Now()) {
		p.recordError("outcome_duplicate")
		return true
	}
	select {
	case p.bufCh <- out:
		return true
	default:
		p.recordError("outcome_buffer_full")
		return false
	}
}

// Depth reports the current retry buffer depth.
func (p *OutcomePipeline) Depth() int { return len(p.bufCh) }

func (p *OutcomePipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}

// firstSeen records the trade id and reports whether it was new.
func (p *OutcomePipeline) firstSeen(tradeID string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if at, ok := p.seen[tradeID]; ok && now.Sub(at) < p.dedupTTL {
		return false
	}
	p.seen[tradeID] = now
	return true
}

func (p *OutcomePipeline) pruneSeen(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, at := range p.seen {
		if now.Sub(at) >= p.dedupTTL {
			delete(p.seen, id)
		}
	}
}

func validateOutcome(out *models.Outcome) error {
	if out == nil {
		return fmt.Errorf("outcome nil")
	}
	if out.TradeID == "" {
		return fmt.Errorf("trade id empty")
	}
	return nil
}
