package usecase

import (
	"sync"
	"time"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
	domsvc "GoldPulse/internal/domain/service"
	"GoldPulse/internal/services/regime"
	"GoldPulse/internal/services/signals"
	"GoldPulse/pkg/logger"
)

const (
	defaultMaxHistory = 600
	defaultVolWindow  = 50
	defaultZWindow    = 100

	// shrink factor applied to learned posteriors when a symbol enters
	// volatility drift
	driftFlattenShrink = 0.5
)

// PriorFlattener pulls a symbol's learned posteriors back toward the
// uninformative default. The reliability store implements it.
type PriorFlattener interface {
	Flatten(symbol string, shrink float64, includePrior bool)
}

// Evaluation bundles the confidence reading and the threshold policy
// verdict for one proposed trade.
type Evaluation struct {
	Symbol     string                  `json:"symbol"`
	Direction  models.Direction        `json:"direction"`
	Evidence   models.Evidence         `json:"evidence"`
	Confidence models.ConfidenceResult `json:"confidence"`
	Policy     models.PolicyDecision   `json:"policy"`
}

// symbolWindow is the per-symbol market context maintained from the
// price stream: rolling closes, online Kalman filter, drift flag.
type symbolWindow struct {
	closes []float64
	kalman *signals.KalmanTrend
	drift  *regime.DriftDetector
	inDrift bool
}

// DecisionEngine is the decision-cycle orchestrator. It keeps live
// market context per symbol, turns it into evidence, scores proposed
// trades, and applies the threshold policy.
type DecisionEngine struct {
	scorer    domsvc.ConfidenceScorer
	fusion    *FusionEngine
	policy    *ThresholdPolicy
	volFeed   drepo.VolatilityFeed
	metrics   drepo.Metrics
	flattener PriorFlattener
	log       *logger.Logger

	kalmanParams   KalmanSettings
	maxHistory     int
	volWindow      int
	zWindow        int
	driftThreshold float64

	mu      sync.RWMutex
	windows map[string]*symbolWindow
}

// KalmanSettings carries the per-filter tuning handed to each new
// symbol window.
type KalmanSettings struct {
	Params     signals.KalmanParams
	SlopeScale float64
}

// DecisionEngineOption tunes the orchestrator.
type DecisionEngineOption func(*DecisionEngine)

// WithMaxHistory caps the rolling close window per symbol.
func WithMaxHistory(n int) DecisionEngineOption {
	return func(d *DecisionEngine) {
		if n > 0 {
			d.maxHistory = n
		}
	}
}

// WithVolWindow sets the rolling volatility window.
func WithVolWindow(n int) DecisionEngineOption {
	return func(d *DecisionEngine) {
		if n > 0 {
			d.volWindow = n
		}
	}
}

// WithZWindow sets the OU z-score lookback.
func WithZWindow(n int) DecisionEngineOption {
	return func(d *DecisionEngine) {
		if n > 0 {
			d.zWindow = n
		}
	}
}

// WithDriftThreshold sets the relative drift threshold.
func WithDriftThreshold(t float64) DecisionEngineOption {
	return func(d *DecisionEngine) {
		if t > 0 {
			d.driftThreshold = t
		}
	}
}

// WithKalmanSettings overrides the filter tuning for new symbols.
func WithKalmanSettings(s KalmanSettings) DecisionEngineOption {
	return func(d *DecisionEngine) { d.kalmanParams = s }
}

// WithPriorFlattener installs the hook fired when a symbol enters
// volatility drift.
func WithPriorFlattener(f PriorFlattener) DecisionEngineOption {
	return func(d *DecisionEngine) { d.flattener = f }
}

// NewDecisionEngine wires the orchestrator. volFeed and metrics may be
// nil; both are best-effort side channels.
func NewDecisionEngine(
	scorer domsvc.ConfidenceScorer,
	fusion *FusionEngine,
	policy *ThresholdPolicy,
	volFeed drepo.VolatilityFeed,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...DecisionEngineOption,
) *DecisionEngine {
	d := &DecisionEngine{
		scorer:  scorer,
		fusion:  fusion,
		policy:  policy,
		volFeed: volFeed,
		metrics: metrics,
		log:     log,
		kalmanParams: KalmanSettings{
			Params:     signals.DefaultKalmanParams(),
			SlopeScale: signals.DefaultKalmanSlopeScale,
		},
		maxHistory:     defaultMaxHistory,
		volWindow:      defaultVolWindow,
		zWindow:        defaultZWindow,
		driftThreshold: 0.15,
		windows:        make(map[string]*symbolWindow),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DecisionEngine) window(symbol string) *symbolWindow {
	w, ok := d.windows[symbol]
	if !ok {
		w = &symbolWindow{
			kalman: signals.NewKalmanTrend(d.kalmanParams.Params),
			drift:  regime.NewDriftDetector(d.driftThreshold),
		}
		d.windows[symbol] = w
	}
	return w
}

// ObserveTick folds one close tick into the symbol's market context.
// Volatility is republished to the shared feed after every tick, and a
// calm-to-drift transition flattens the symbol's learned posteriors.
func (d *DecisionEngine) ObserveTick(tick *models.Tick) {
	if tick == nil || tick.Price <= 0 {
		return
	}
	d.mu.Lock()
	w := d.window(tick.Symbol)
	w.closes = append(w.closes, tick.Price)
	if len(w.closes) > d.maxHistory {
		w.closes = w.closes[len(w.closes)-d.maxHistory:]
	}
	w.kalman.Observe(tick.Price)
	vol := regime.RollingVolatility(w.closes, d.volWindow)
	wasDrift := w.inDrift
	w.inDrift = w.drift.Observe(vol)
	enteredDrift := w.inDrift && !wasDrift
	d.mu.Unlock()

	// only the transition flattens; a persistent drift must not keep
	// eroding the posteriors every tick
	if enteredDrift && d.flattener != nil {
		d.flattener.Flatten(tick.Symbol, driftFlattenShrink, false)
		if d.log != nil {
			d.log.Warn("volatility drift detected, flattening posteriors", logger.String("symbol", tick.Symbol))
		}
	}

	if d.metrics != nil {
		d.metrics.RecordLastPrice(tick.Symbol, tick.Price)
	}
	if d.volFeed != nil {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		if err := d.volFeed.Publish(ctx, tick.Symbol, vol); err != nil {
			if d.metrics != nil {
				d.metrics.RecordError("vol_publish")
			}
			if d.log != nil {
				d.log.Warn("volatility publish failed", logger.String("symbol", tick.Symbol), logger.Error(err))
			}
		}
	}
}

// snapshot returns the closes copy, slope, volatility and drift flag
// for symbol under a single read lock.
func (d *DecisionEngine) snapshot(symbol string) (closes []float64, slope, vol float64, drift bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.windows[symbol]
	if !ok {
		return nil, 0, 0, false
	}
	closes = make([]float64, len(w.closes))
	copy(closes, w.closes)
	if w.kalman.Initialized() {
		slope = w.kalman.Slope()
	}
	vol = regime.RollingVolatility(closes, d.volWindow)
	return closes, slope, vol, w.inDrift
}

// Evaluate scores a proposed trade from the live market context: the
// current filter slope, OU z-score and stochastic crossover become the
// evidence bundle, and the threshold policy maps the fused confidence
// onto an action.
func (d *DecisionEngine) Evaluate(symbol string, direction models.Direction) Evaluation {
	closes, slope, vol, drift := d.snapshot(symbol)

	in := signals.EvidenceInputs{KalmanSlopeScale: d.kalmanParams.SlopeScale}
	if len(closes) > 0 {
		s := slope
		in.KalmanSlope = &s
		z := signals.OUZScore(closes, closes[len(closes)-1], d.zWindow)
		in.OUZScore = &z
		fast, slowK := signals.Stochastic(closes, signals.DefaultKPeriod, signals.DefaultDPeriod)
		in.StochFast = &fast
		in.StochSlow = &slowK
	}
	return d.EvaluateWithInputs(symbol, direction, in, vol, drift)
}

// EvaluateWithInputs scores a proposed trade from caller-supplied raw
// indicator readings, as used by the HTTP API.
func (d *DecisionEngine) EvaluateWithInputs(symbol string, direction models.Direction, in signals.EvidenceInputs, vol float64, drift bool) Evaluation {
	ev := signals.BuildEvidence(direction, in)
	return d.evaluateEvidence(symbol, direction, ev, vol, drift)
}

// EvaluateEvidence scores a pre-built evidence bundle.
func (d *DecisionEngine) EvaluateEvidence(symbol string, direction models.Direction, ev models.Evidence) Evaluation {
	_, _, vol, drift := d.snapshot(symbol)
	return d.evaluateEvidence(symbol, direction, ev, vol, drift)
}

func (d *DecisionEngine) evaluateEvidence(symbol string, direction models.Direction, ev models.Evidence, vol float64, drift bool) Evaluation {
	start := time.Now()
	res := d.scorer.ComputeConfidence(symbol, direction, ev)
	if d.metrics != nil {
		d.metrics.RecordConfidence(symbol, string(direction), res.Confidence)
		d.metrics.RecordLatency("compute_confidence", time.Since(start).Seconds())
	}
	return Evaluation{
		Symbol:     symbol,
		Direction:  direction,
		Evidence:   ev,
		Confidence: res,
		Policy:     d.policy.Decide(res.Confidence, vol, drift),
	}
}

// Decide registers the evaluated trade as pending so a later realized
// outcome can update the posteriors. Registration does not depend on
// the policy verdict; the caller decides whether to act on it.
func (d *DecisionEngine) Decide(tradeID, symbol string, direction models.Direction, eval Evaluation) {
	d.scorer.RegisterDecision(&models.Decision{
		TradeID:    tradeID,
		Symbol:     symbol,
		Direction:  direction,
		Evidence:   eval.Evidence,
		Confidence: eval.Confidence.Confidence,
	})
}

// Fused computes the weighted-logit blend from the live market context.
func (d *DecisionEngine) Fused(symbol string) models.FusedDecision {
	closes, slope, _, _ := d.snapshot(symbol)
	return d.fusion.FusedDecision(symbol, slope, closes)
}

// Volatility returns the live rolling volatility and drift flag,
// falling back to the shared feed when the local window is empty.
func (d *DecisionEngine) Volatility(symbol string) (float64, bool) {
	closes, _, vol, drift := d.snapshot(symbol)
	if len(closes) > 0 {
		return vol, drift
	}
	if d.volFeed != nil {
		ctx, cancel := contextWithTimeout()
		defer cancel()
		if v, _, err := d.volFeed.Latest(ctx, symbol); err == nil {
			return v, false
		}
	}
	return 0, false
}

// HistoryLen reports the rolling window size for symbol.
func (d *DecisionEngine) HistoryLen(symbol string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.windows[symbol]
	if !ok {
		return 0
	}
	return len(w.closes)
}
