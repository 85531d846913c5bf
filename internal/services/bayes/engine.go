package bayes

import (
	"fmt"
	"sync"
	"time"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
	"GoldPulse/pkg/logger"
	"GoldPulse/pkg/prob"
)

// PriorUpdateMode selects how the symbol's base prior moves per trade.
type PriorUpdateMode string

const (
	// PriorUpdateFlat moves the prior by one full Bernoulli trial.
	PriorUpdateFlat PriorUpdateMode = "flat"
	// PriorUpdateConfidence scales the move by the confidence the
	// engine had at registration time.
	PriorUpdateConfidence PriorUpdateMode = "confidence"
)

// DefaultConfidenceGain amplifies win/loss learning for
// PriorUpdateConfidence, matching the original feedback loop.
const DefaultConfidenceGain = 1.5

// EngineConfig tunes the confidence engine.
type EngineConfig struct {
	PriorMode      PriorUpdateMode
	ConfidenceGain float64
}

func (c *EngineConfig) applyDefaults() {
	if c.PriorMode == "" {
		c.PriorMode = PriorUpdateFlat
	}
	if c.ConfidenceGain <= 0 {
		c.ConfidenceGain = DefaultConfidenceGain
	}
}

// OutcomeTracker receives per-signal correctness after each trade.
// Satisfied by the dynamic weighting tracker.
type OutcomeTracker interface {
	RegisterOutcome(symbol, signal string, correct bool)
}

// Engine combines a symbol's base prior with named signal evidence into
// a fused log-odds confidence, tracks pending decisions by trade id,
// and feeds realized outcomes back into the reliability store.
type Engine struct {
	store   *ReliabilityStore
	tracker OutcomeTracker
	metrics drepo.Metrics
	cfg     EngineConfig
	log     *logger.Logger

	mu      sync.Mutex
	pending map[string]*models.Decision
}

// NewEngine wires the engine. tracker and metrics may be nil.
func NewEngine(store *ReliabilityStore, tracker OutcomeTracker, metrics drepo.Metrics, cfg EngineConfig, log *logger.Logger) *Engine {
	cfg.applyDefaults()
	return &Engine{
		store:   store,
		tracker: tracker,
		metrics: metrics,
		cfg:     cfg,
		log:     log,
		pending: make(map[string]*models.Decision),
	}
}

// ComputeConfidence fuses the symbol prior and evidence into a success
// probability for the proposed direction:
//
//	log_odds = logit(prior) + Σ strength_i * ±ln(p_i/(1-p_i))
//
// where p_i is the signal's historical reliability and the sign flips
// when the signal contradicts the direction. Unknown signal names are
// auto-registered at the default prior. An invalid direction is a
// caller bug and panics.
func (e *Engine) ComputeConfidence(symbol string, direction models.Direction, ev models.Evidence) models.ConfidenceResult {
	if !direction.Valid() {
		panic(fmt.Sprintf("bayes: direction must be buy or sell, got %q", direction))
	}

	prior := e.store.PriorMean(symbol)
	logOdds := prob.Logit(prior)

	for name, sig := range ev {
		if sig.Present == nil {
			continue
		}
		pSig := e.store.PosteriorMean(symbol, name)
		lr := prob.Logit(pSig)
		if *sig.Present {
			logOdds += sig.Strength * lr
		} else {
			logOdds -= sig.Strength * lr
		}
	}

	confidence := prob.Sigmoid(logOdds)
	if e.metrics != nil {
		e.metrics.RecordConfidence(symbol, string(direction), confidence)
	}
	return models.ConfidenceResult{Confidence: confidence, LogOdds: logOdds, Prior: prior}
}

// RegisterDecision stores the evidence bundle under its trade id until
// the trade closes. A duplicate id silently replaces the prior bundle.
func (e *Engine) RegisterDecision(dec *models.Decision) {
	if dec == nil || dec.TradeID == "" {
		return
	}
	if dec.RegisteredAt.IsZero() {
		dec.RegisteredAt = time.Now().UTC()
	}
	e.mu.Lock()
	e.pending[dec.TradeID] = dec
	e.mu.Unlock()
}

// UpdateOutcome pops the pending bundle for tradeID and applies the
// realized PnL: the base prior moves per the configured mode, each
// non-nil signal posterior moves by its evidence strength with the
// credit flipped for contrarian signals, and the weight tracker learns
// per-signal correctness. Returns false for unknown trade ids.
func (e *Engine) UpdateOutcome(tradeID string, pnl float64) (*models.OutcomeRecord, bool) {
	e.mu.Lock()
	dec, ok := e.pending[tradeID]
	if ok {
		delete(e.pending, tradeID)
	}
	e.mu.Unlock()
	if !ok {
		return nil, false
	}

	success := pnl > 0
	e.updatePrior(dec, success)

	for name, sig := range dec.Evidence {
		if sig.Present == nil {
			continue
		}
		// A contrarian signal that "called it" when the trade won
		// anyway was wrong, and vice versa.
		correct := *sig.Present == success
		if correct {
			e.store.Nudge(dec.Symbol, name, sig.Strength, 0)
		} else {
			e.store.Nudge(dec.Symbol, name, 0, sig.Strength)
		}
		if e.tracker != nil {
			e.tracker.RegisterOutcome(dec.Symbol, name, correct)
		}
		if e.metrics != nil {
			e.metrics.RecordPosteriorMean(dec.Symbol, name, e.store.PosteriorMean(dec.Symbol, name))
		}
	}

	result := "loss"
	if success {
		result = "win"
	}
	if e.metrics != nil {
		e.metrics.RecordOutcome(dec.Symbol, result)
	}
	if e.log != nil {
		e.log.Info("outcome applied",
			logger.String("trade_id", tradeID),
			logger.String("symbol", dec.Symbol),
			logger.Bool("win", success),
			logger.Any("pnl", pnl),
		)
	}

	return &models.OutcomeRecord{
		Ts:         time.Now().UTC(),
		TradeID:    tradeID,
		Symbol:     dec.Symbol,
		Direction:  dec.Direction,
		PnL:        pnl,
		Success:    success,
		Confidence: dec.Confidence,
		PriorMean:  e.store.PriorMean(dec.Symbol),
	}, true
}

// updatePrior applies the configured base-prior strategy.
func (e *Engine) updatePrior(dec *models.Decision, success bool) {
	switch e.cfg.PriorMode {
	case PriorUpdateConfidence:
		// Higher registration confidence amplifies both win and loss
		// learning, bounded away from 0 and 1.
		conf := prob.Clamp(dec.Confidence, 0, 1)
		boost := prob.Clamp(0.5+(conf-0.5)*e.cfg.ConfidenceGain, 0.1, 0.9)
		successW := boost
		if !success {
			successW = 1.0 - boost
		}
		e.store.NudgePrior(dec.Symbol, successW, 1.0-successW)
	default:
		e.store.AddPriorOutcome(dec.Symbol, success)
	}
}

// PendingCount reports how many decisions await an outcome.
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Store exposes the underlying reliability store for fusion and state
// inspection.
func (e *Engine) Store() *ReliabilityStore { return e.store }
