package weights

import (
	"context"
	"math"
	"sync"
	"time"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
	"GoldPulse/pkg/logger"
	"GoldPulse/pkg/prob"
)

const (
	DefaultAlpha     = 0.2  // EWMA smoothing for accuracy
	DefaultBeta      = 0.1  // EWMA smoothing for variance
	DefaultMinWeight = 0.05 // floor before normalization, keeps diversity

	initialAcc = 0.55 // start slightly optimistic
	initialVar = 0.05
)

// Scoring hyperparameters: accuracy dominates, variance penalizes,
// regime alignment bumps, volatility fit nudges.
const (
	wAcc  = 3.0
	wStab = 2.0
	wReg  = 1.0
	wVol  = 0.5
)

// regimeBias encodes which signals deserve trust in which regime:
// trend followers in trends, mean reverters in ranges.
var regimeBias = map[string]map[string]float64{
	"trend": {
		"kf_trend": +1.0, "kf_slope": +1.0, "stoch_momo": +0.5,
		"ou_revert": -0.5, "ou_zscore": -0.4,
	},
	"range": {
		"ou_revert": +1.0, "ou_zscore": +0.8,
		"kf_trend": -0.5, "kf_slope": -0.5, "stoch_momo": -0.2,
	},
}

// volPenalty marks signals that struggle as volatility climbs.
var volPenalty = map[string]float64{
	"ou_revert": 1.0, "ou_zscore": 0.6,
	"kf_trend": 0.2, "kf_slope": 0.1, "stoch_momo": 0.3,
}

const defaultVolPenalty = 0.2

// Config tunes the tracker.
type Config struct {
	Alpha     float64 // EWMA accuracy smoothing
	Beta      float64 // EWMA variance smoothing
	MinWeight float64 // raw-score floor before normalization
}

func (c *Config) applyDefaults() {
	if c.Alpha <= 0 {
		c.Alpha = DefaultAlpha
	}
	if c.Beta <= 0 {
		c.Beta = DefaultBeta
	}
	if c.MinWeight <= 0 {
		c.MinWeight = DefaultMinWeight
	}
}

// Tracker maintains per-symbol, per-signal EWMA accuracy and variance,
// and converts them plus regime and volatility context into a
// normalized weight vector. Persisted as whole snapshots; a missing or
// corrupt snapshot restarts from defaults.
type Tracker struct {
	mu    sync.Mutex
	state map[string]models.SymbolWeights
	store drepo.WeightStateStore
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
}

// NewTracker loads persisted weight state, or starts fresh.
func NewTracker(store drepo.WeightStateStore, cfg Config, log *logger.Logger) *Tracker {
	cfg.applyDefaults()
	t := &Tracker{
		state: make(map[string]models.SymbolWeights),
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
	if store != nil {
		loaded, err := store.Load(context.Background())
		if err != nil {
			if log != nil {
				log.Warn("weight state unavailable, starting from defaults", logger.Error(err))
			}
		}
		if loaded != nil {
			t.state = loaded
		}
	}
	return t
}

// ensure lazily creates the weight node. Caller holds t.mu.
func (t *Tracker) ensure(symbol, signal string) *models.WeightState {
	sym, ok := t.state[symbol]
	if !ok {
		sym = make(models.SymbolWeights)
		t.state[symbol] = sym
	}
	s, ok := sym[signal]
	if !ok {
		s = &models.WeightState{EmaAcc: initialAcc, EmaVar: initialVar, Base: 1.0}
		sym[signal] = s
	}
	return s
}

// RegisterOutcome folds one correctness observation into the signal's
// EWMA accuracy and variance, then persists.
func (t *Tracker) RegisterOutcome(symbol, signal string, correct bool) {
	x := 0.0
	if correct {
		x = 1.0
	}
	t.mu.Lock()
	s := t.ensure(symbol, signal)
	s.EmaAcc = (1-t.cfg.Alpha)*s.EmaAcc + t.cfg.Alpha*x
	diff := x - s.EmaAcc
	s.EmaVar = (1-t.cfg.Beta)*s.EmaVar + t.cfg.Beta*diff*diff
	s.Count++
	s.LastUpdate = t.now().Unix()
	t.mu.Unlock()
	t.persist()
}

// Compute returns normalized weights for the requested signals given
// the current regime label and volatility reading. The raw score per
// signal is floored at MinWeight before normalization so no signal is
// ever starved out entirely; a degenerate total falls back to uniform.
func (t *Tracker) Compute(symbol string, signals []string, regime string, vol float64) map[string]float64 {
	if regime == "" {
		regime = "range"
	}
	rb := regimeBias[regime]

	raw := t.rawScores(symbol, signals, rb, vol)

	total := 0.0
	for _, v := range raw {
		total += v
	}
	out := make(map[string]float64, len(signals))
	if total <= 0 {
		// fallback to uniform
		n := len(signals)
		if n == 0 {
			return out
		}
		for _, sig := range signals {
			out[sig] = 1.0 / float64(n)
		}
		return out
	}
	for _, sig := range signals {
		out[sig] = raw[sig] / total
	}
	return out
}

// rawScores computes pre-normalization exponentiated scores with the
// MinWeight floor applied.
func (t *Tracker) rawScores(symbol string, signals []string, rb map[string]float64, vol float64) map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw := make(map[string]float64, len(signals))
	for _, sig := range signals {
		s := t.ensure(symbol, sig)

		accTerm := wAcc * (s.EmaAcc - 0.5) * 2.0
		stabTerm := -wStab * prob.Clamp(s.EmaVar, 0, 1)
		regTerm := wReg * rb[sig]
		pen, ok := volPenalty[sig]
		if !ok {
			pen = defaultVolPenalty
		}
		volTerm := -wVol * pen * prob.Clamp(vol, 0, 0.05) / 0.05

		score := accTerm + stabTerm + regTerm + volTerm
		raw[sig] = math.Max(t.cfg.MinWeight, s.Base*math.Exp(score))
	}
	return raw
}

// Snapshot returns a deep copy of the tracker state.
func (t *Tracker) Snapshot() map[string]models.SymbolWeights {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]models.SymbolWeights, len(t.state))
	for sym, sigs := range t.state {
		cp := make(models.SymbolWeights, len(sigs))
		for name, s := range sigs {
			v := *s
			cp[name] = &v
		}
		out[sym] = cp
	}
	return out
}

func (t *Tracker) persist() {
	if t.store == nil {
		return
	}
	snap := t.Snapshot()
	if err := t.store.Save(context.Background(), snap); err != nil && t.log != nil {
		t.log.Warn("weight state save failed", logger.Error(err))
	}
}
