package usecase

import (
	"context"
	"time"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
	domsvc "GoldPulse/internal/domain/service"
	"GoldPulse/pkg/logger"
)

const sideEffectTimeout = 5 * time.Second

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), sideEffectTimeout)
}

// OutcomeProcessor applies realized trade closes to the learning core
// and fans the applied record out to the audit log and the broadcast
// topic. Audit and broadcast are best-effort: the Beta update must
// never be lost to a storage hiccup.
type OutcomeProcessor struct {
	scorer    domsvc.ConfidenceScorer
	audit     drepo.OutcomeAudit
	publisher drepo.UpdatePublisher
	metrics   drepo.Metrics
	log       *logger.Logger
}

// NewOutcomeProcessor wires the feedback fan-out. audit, publisher and
// metrics may each be nil.
func NewOutcomeProcessor(
	scorer domsvc.ConfidenceScorer,
	audit drepo.OutcomeAudit,
	publisher drepo.UpdatePublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
) *OutcomeProcessor {
	return &OutcomeProcessor{
		scorer:    scorer,
		audit:     audit,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

// Apply feeds one realized outcome into the learning core. The bool
// result reports whether a pending decision existed for the trade id;
// false is not an error, closes for unregistered trades are ignored.
func (p *OutcomeProcessor) Apply(ctx context.Context, out *models.Outcome) (*models.OutcomeRecord, bool) {
	start := time.Now()
	rec, ok := p.scorer.UpdateOutcome(out.TradeID, out.PnL)
	if !ok {
		if p.log != nil {
			p.log.Debug("outcome for unknown trade id ignored", logger.String("trade_id", out.TradeID))
		}
		return nil, false
	}
	rec.Source = out.Source

	if p.metrics != nil {
		result := "loss"
		if rec.Success {
			result = "win"
		}
		p.metrics.RecordOutcome(rec.Symbol, result)
		p.metrics.RecordLatency("update_outcome", time.Since(start).Seconds())
	}

	if p.audit != nil {
		actx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		if err := p.audit.Append(actx, rec); err != nil {
			if p.metrics != nil {
				p.metrics.RecordError("audit_append")
			}
			if p.log != nil {
				p.log.Warn("outcome audit append failed",
					logger.String("trade_id", rec.TradeID), logger.Error(err))
			}
		}
		cancel()
	}

	if p.publisher != nil {
		pctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		if err := p.publisher.Publish(pctx, rec); err != nil {
			if p.metrics != nil {
				p.metrics.RecordError("outcome_publish")
			}
			if p.log != nil {
				p.log.Warn("outcome broadcast failed",
					logger.String("trade_id", rec.TradeID), logger.Error(err))
			}
		}
		cancel()
	}

	if p.log != nil {
		p.log.Info("outcome applied",
			logger.String("trade_id", rec.TradeID),
			logger.String("symbol", rec.Symbol),
			logger.Float64("pnl", rec.PnL),
			logger.Bool("success", rec.Success))
	}
	return rec, true
}

// Recent reads the trailing audit rows for symbol.
func (p *OutcomeProcessor) Recent(ctx context.Context, symbol string, limit int) ([]*models.OutcomeRecord, error) {
	if p.audit == nil {
		return nil, nil
	}
	return p.audit.Recent(ctx, symbol, limit)
}
