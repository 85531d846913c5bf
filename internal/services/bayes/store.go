package bayes

import (
	"context"
	"sync"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
	"GoldPulse/pkg/logger"
	"GoldPulse/pkg/prob"
)

// Store defaults match the original strategy's weakly-informative
// symmetric prior and bounded-memory cap.
const (
	DefaultAlpha          = 50.0
	DefaultBeta           = 50.0
	DefaultUpdateStrength = 0.75
	DefaultPriorCap       = 2500.0
)

// StoreConfig tunes the reliability store.
type StoreConfig struct {
	DefaultAlpha   float64  // shape A for fresh posteriors
	DefaultBeta    float64  // shape B for fresh posteriors
	UpdateStrength float64  // alpha applied to every nudge
	PriorCap       float64  // soft cap on A+B; 0 disables
	Signals        []string // signal names seeded for a new symbol
}

func (c *StoreConfig) applyDefaults() {
	if c.DefaultAlpha <= 0 {
		c.DefaultAlpha = DefaultAlpha
	}
	if c.DefaultBeta <= 0 {
		c.DefaultBeta = DefaultBeta
	}
	if c.UpdateStrength <= 0 {
		c.UpdateStrength = DefaultUpdateStrength
	}
	if c.PriorCap < 0 {
		c.PriorCap = DefaultPriorCap
	}
}

// ReliabilityStore tracks Beta(a,b) posteriors per symbol: one base
// prior plus one posterior per named signal. Every mutation persists
// the whole state snapshot; persistence failures degrade to in-memory
// state and never surface to the trading path.
type ReliabilityStore struct {
	mu    sync.Mutex
	state map[string]*models.SymbolState
	store drepo.BayesStateStore
	cfg   StoreConfig
	log   *logger.Logger
}

// NewReliabilityStore loads the persisted snapshot, or starts from an
// empty state when the store is absent or unreadable.
func NewReliabilityStore(store drepo.BayesStateStore, cfg StoreConfig, log *logger.Logger) *ReliabilityStore {
	cfg.applyDefaults()
	s := &ReliabilityStore{
		state: make(map[string]*models.SymbolState),
		store: store,
		cfg:   cfg,
		log:   log,
	}
	if store != nil {
		loaded, err := store.Load(context.Background())
		if err != nil {
			if log != nil {
				log.Warn("bayes state unavailable, starting from defaults", logger.Error(err))
			}
		}
		if loaded != nil {
			s.state = loaded
		}
	}
	return s
}

// ensureSymbol lazily creates the symbol node with configured signals.
// Caller holds s.mu.
func (s *ReliabilityStore) ensureSymbol(symbol string) *models.SymbolState {
	node, ok := s.state[symbol]
	if !ok {
		node = &models.SymbolState{
			Prior:   models.BetaShape{A: s.cfg.DefaultAlpha, B: s.cfg.DefaultBeta},
			Signals: make(map[string]*models.BetaShape, len(s.cfg.Signals)),
		}
		for _, name := range s.cfg.Signals {
			node.Signals[name] = &models.BetaShape{A: s.cfg.DefaultAlpha, B: s.cfg.DefaultBeta}
		}
		s.state[symbol] = node
	}
	if node.Signals == nil {
		node.Signals = make(map[string]*models.BetaShape)
	}
	return node
}

// ensureSignal lazily registers an unknown signal name at the default
// prior. Caller holds s.mu.
func (s *ReliabilityStore) ensureSignal(node *models.SymbolState, signal string) *models.BetaShape {
	sig, ok := node.Signals[signal]
	if !ok {
		sig = &models.BetaShape{A: s.cfg.DefaultAlpha, B: s.cfg.DefaultBeta}
		node.Signals[signal] = sig
	}
	return sig
}

// PriorMean returns the symbol's base win-rate estimate in (0,1).
func (s *ReliabilityStore) PriorMean(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.ensureSymbol(symbol)
	return prob.Clamp01(node.Prior.Mean())
}

// PosteriorMean returns the stored (or freshly defaulted) reliability
// estimate for one signal, always inside (0,1).
func (s *ReliabilityStore) PosteriorMean(symbol, signal string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	node := s.ensureSymbol(symbol)
	sig := s.ensureSignal(node, signal)
	return prob.Clamp01(sig.Mean())
}

// Nudge applies an alpha-scaled update to one signal's posterior and
// persists. The soft cap rescales both shapes when A+B overflows so
// the posterior keeps responding to new evidence.
func (s *ReliabilityStore) Nudge(symbol, signal string, successWeight, failureWeight float64) {
	s.mu.Lock()
	node := s.ensureSymbol(symbol)
	sig := s.ensureSignal(node, signal)
	s.nudgeShape(sig, successWeight, failureWeight)
	s.mu.Unlock()
	s.persist()
}

// NudgePrior applies an alpha-scaled update to the symbol's base prior.
func (s *ReliabilityStore) NudgePrior(symbol string, successWeight, failureWeight float64) {
	s.mu.Lock()
	node := s.ensureSymbol(symbol)
	s.nudgeShape(&node.Prior, successWeight, failureWeight)
	s.mu.Unlock()
	s.persist()
}

// AddPriorOutcome moves the base prior by one full Bernoulli trial,
// bypassing the update-strength scaling.
func (s *ReliabilityStore) AddPriorOutcome(symbol string, success bool) {
	s.mu.Lock()
	node := s.ensureSymbol(symbol)
	if success {
		node.Prior.A += 1.0
	} else {
		node.Prior.B += 1.0
	}
	s.capShape(&node.Prior)
	s.mu.Unlock()
	s.persist()
}

// nudgeShape mutates one Beta shape in place. Caller holds s.mu.
func (s *ReliabilityStore) nudgeShape(shape *models.BetaShape, successWeight, failureWeight float64) {
	shape.A += s.cfg.UpdateStrength * successWeight
	shape.B += s.cfg.UpdateStrength * failureWeight
	s.capShape(shape)
}

func (s *ReliabilityStore) capShape(shape *models.BetaShape) {
	if s.cfg.PriorCap <= 0 {
		return
	}
	total := shape.A + shape.B
	if total > s.cfg.PriorCap {
		scale := s.cfg.PriorCap / total
		shape.A *= scale
		shape.B *= scale
	}
}

// Flatten pulls every signal posterior under symbol (and optionally the
// base prior) back toward the uninformative default, keeping the mean's
// side of 0.5 but shrinking its distance. Used on detected regime drift.
func (s *ReliabilityStore) Flatten(symbol string, shrink float64, includePrior bool) {
	s.mu.Lock()
	node, ok := s.state[symbol]
	if !ok {
		s.mu.Unlock()
		return
	}
	for _, sig := range node.Signals {
		sig.A = s.cfg.DefaultAlpha + (sig.A-s.cfg.DefaultAlpha)*shrink
		sig.B = s.cfg.DefaultBeta + (sig.B-s.cfg.DefaultBeta)*shrink
	}
	if includePrior {
		node.Prior.A = s.cfg.DefaultAlpha + (node.Prior.A-s.cfg.DefaultAlpha)*shrink
		node.Prior.B = s.cfg.DefaultBeta + (node.Prior.B-s.cfg.DefaultBeta)*shrink
	}
	s.mu.Unlock()
	s.persist()
	if s.log != nil {
		s.log.Info("priors flattened after regime drift", logger.String("symbol", symbol))
	}
}

// Snapshot returns a deep copy of the current state for read-only use.
func (s *ReliabilityStore) Snapshot() map[string]*models.SymbolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.SymbolState, len(s.state))
	for sym, node := range s.state {
		cp := &models.SymbolState{
			Prior:   node.Prior,
			Signals: make(map[string]*models.BetaShape, len(node.Signals)),
		}
		for name, sig := range node.Signals {
			v := *sig
			cp.Signals[name] = &v
		}
		out[sym] = cp
	}
	return out
}

// persist writes the full snapshot. Failures are logged, never returned:
// the strategy must keep trading on in-memory state.
func (s *ReliabilityStore) persist() {
	if s.store == nil {
		return
	}
	snap := s.Snapshot()
	if err := s.store.Save(context.Background(), snap); err != nil && s.log != nil {
		s.log.Warn("bayes state save failed", logger.Error(err))
	}
}
