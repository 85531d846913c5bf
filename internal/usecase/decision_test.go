package usecase

import (
	"context"
	"testing"
	"time"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
)

type stubScorer struct {
	lastSymbol    string
	lastDirection models.Direction
	lastEvidence  models.Evidence
	registered    []*models.Decision
	confidence    float64
	updated       map[string]float64
	records       map[string]*models.OutcomeRecord
}

func newStubScorer(conf float64) *stubScorer {
	return &stubScorer{
		confidence: conf,
		updated:    make(map[string]float64),
		records:    make(map[string]*models.OutcomeRecord),
	}
}

func (s *stubScorer) ComputeConfidence(symbol string, direction models.Direction, ev models.Evidence) models.ConfidenceResult {
	s.lastSymbol = symbol
	s.lastDirection = direction
	s.lastEvidence = ev
	return models.ConfidenceResult{Confidence: s.confidence, Prior: 0.5}
}

func (s *stubScorer) RegisterDecision(dec *models.Decision) {
	s.registered = append(s.registered, dec)
}

func (s *stubScorer) UpdateOutcome(tradeID string, pnl float64) (*models.OutcomeRecord, bool) {
	if rec, ok := s.records[tradeID]; ok {
		s.updated[tradeID] = pnl
		delete(s.records, tradeID)
		return rec, true
	}
	return nil, false
}

func (s *stubScorer) PendingCount() int { return len(s.records) }

type stubVolFeed struct {
	published map[string]float64
	latest    float64
	err       error
}

func (f *stubVolFeed) Publish(_ context.Context, symbol string, vol float64) error {
	if f.published == nil {
		f.published = make(map[string]float64)
	}
	f.published[symbol] = vol
	return nil
}

func (f *stubVolFeed) Latest(_ context.Context, _ string) (float64, time.Duration, error) {
	return f.latest, time.Second, f.err
}

func newTestEngine(scorer *stubScorer, feed *stubVolFeed) *DecisionEngine {
	fusion := NewFusionEngine(fixedPosteriors{}, uniformWeights{}, 50, 0.56)
	policy := NewThresholdPolicy(0.65, 0.08, 0.05)
	var vf drepo.VolatilityFeed
	if feed != nil {
		vf = feed
	}
	return NewDecisionEngine(scorer, fusion, policy, vf, nil, nil)
}

func tick(symbol string, price float64) *models.Tick {
	return &models.Tick{Symbol: symbol, Price: price, Timestamp: time.Now().UnixMilli()}
}

func TestObserveTickBuildsHistory(t *testing.T) {
	eng := newTestEngine(newStubScorer(0.6), nil)
	for i := 0; i < 10; i++ {
		eng.ObserveTick(tick("XAUUSD", 2000+float64(i)))
	}
	if got := eng.HistoryLen("XAUUSD"); got != 10 {
		t.Fatalf("history length = %d, want 10", got)
	}
}

func TestObserveTickCapsHistory(t *testing.T) {
	eng := NewDecisionEngine(newStubScorer(0.6), nil, NewThresholdPolicy(0, 0, 0), nil, nil, nil, WithMaxHistory(5))
	for i := 0; i < 20; i++ {
		eng.ObserveTick(tick("XAUUSD", 2000+float64(i)))
	}
	if got := eng.HistoryLen("XAUUSD"); got != 5 {
		t.Fatalf("history length = %d, want 5", got)
	}
}

func TestObserveTickIgnoresBadTicks(t *testing.T) {
	eng := newTestEngine(newStubScorer(0.6), nil)
	eng.ObserveTick(nil)
	eng.ObserveTick(tick("XAUUSD", 0))
	eng.ObserveTick(tick("XAUUSD", -5))
	if got := eng.HistoryLen("XAUUSD"); got != 0 {
		t.Fatalf("bad ticks must not enter history, got %d", got)
	}
}

func TestObserveTickPublishesVolatility(t *testing.T) {
	feed := &stubVolFeed{}
	eng := newTestEngine(newStubScorer(0.6), feed)
	eng.ObserveTick(tick("XAUUSD", 2000))
	if _, ok := feed.published["XAUUSD"]; !ok {
		t.Fatalf("tick must publish a volatility reading")
	}
}

func TestEvaluateBuildsEvidenceFromMarketContext(t *testing.T) {
	scorer := newStubScorer(0.7)
	eng := newTestEngine(scorer, nil)
	for i := 0; i < 120; i++ {
		eng.ObserveTick(tick("XAUUSD", 2000+float64(i)*0.5))
	}

	eval := eng.Evaluate("XAUUSD", models.Buy)
	if scorer.lastSymbol != "XAUUSD" || scorer.lastDirection != models.Buy {
		t.Fatalf("scorer called with %s/%s", scorer.lastSymbol, scorer.lastDirection)
	}
	kf, ok := eval.Evidence["kf_trend"]
	if !ok || kf.Present == nil {
		t.Fatalf("climbing market must produce a kalman opinion: %+v", eval.Evidence)
	}
	if !*kf.Present {
		t.Fatalf("positive slope must support buy")
	}
	if eval.Confidence.Confidence != 0.7 {
		t.Fatalf("confidence passthrough = %v, want 0.7", eval.Confidence.Confidence)
	}
	if eval.Policy.Action != ActionBuy {
		t.Fatalf("0.7 in a calm market should BUY, got %s", eval.Policy.Action)
	}
}

func TestEvaluateEmptyHistoryNoOpinions(t *testing.T) {
	scorer := newStubScorer(0.5)
	eng := newTestEngine(scorer, nil)
	eval := eng.Evaluate("XAUUSD", models.Sell)
	for name, e := range eval.Evidence {
		if e.Present != nil {
			t.Fatalf("no market context, %s should have no opinion", name)
		}
	}
}

func TestDecideRegistersPendingDecision(t *testing.T) {
	scorer := newStubScorer(0.7)
	eng := newTestEngine(scorer, nil)
	eval := eng.Evaluate("XAUUSD", models.Buy)
	eng.Decide("T-1", "XAUUSD", models.Buy, eval)

	if len(scorer.registered) != 1 {
		t.Fatalf("expected one registered decision, got %d", len(scorer.registered))
	}
	dec := scorer.registered[0]
	if dec.TradeID != "T-1" || dec.Symbol != "XAUUSD" || dec.Direction != models.Buy {
		t.Fatalf("unexpected decision %+v", dec)
	}
	if dec.Confidence != 0.7 {
		t.Fatalf("decision confidence = %v, want 0.7", dec.Confidence)
	}
}

type stubFlattener struct {
	calls  int
	symbol string
	shrink float64
	prior  bool
}

func (f *stubFlattener) Flatten(symbol string, shrink float64, includePrior bool) {
	f.calls++
	f.symbol = symbol
	f.shrink = shrink
	f.prior = includePrior
}

func TestDriftEntryFlattensPosteriorsOnce(t *testing.T) {
	fl := &stubFlattener{}
	eng := NewDecisionEngine(newStubScorer(0.6), nil, NewThresholdPolicy(0, 0, 0), nil, nil, nil,
		WithPriorFlattener(fl))

	for i := 0; i < 80; i++ {
		eng.ObserveTick(tick("XAUUSD", 2000))
	}
	if fl.calls != 0 {
		t.Fatalf("calm market must not flatten, got %d calls", fl.calls)
	}

	for i := 0; i < 40; i++ {
		price := 2025.0
		if i%2 == 1 {
			price = 1975.0
		}
		eng.ObserveTick(tick("XAUUSD", price))
	}
	if _, drift := eng.Volatility("XAUUSD"); !drift {
		t.Fatalf("violent swings must register as drift")
	}
	if fl.calls != 1 {
		t.Fatalf("posteriors must flatten exactly once per drift entry, got %d calls", fl.calls)
	}
	if fl.symbol != "XAUUSD" || fl.shrink != 0.5 || fl.prior {
		t.Fatalf("unexpected flatten call: symbol=%s shrink=%v includePrior=%v", fl.symbol, fl.shrink, fl.prior)
	}
}

func TestVolatilityFallsBackToFeed(t *testing.T) {
	feed := &stubVolFeed{latest: 0.03}
	eng := newTestEngine(newStubScorer(0.6), feed)
	vol, drift := eng.Volatility("XAUUSD")
	if vol != 0.03 || drift {
		t.Fatalf("empty window must read the shared feed: vol %v, drift %v", vol, drift)
	}
}

func TestFusedUsesLiveContext(t *testing.T) {
	eng := newTestEngine(newStubScorer(0.6), nil)
	for i := 0; i < 100; i++ {
		eng.ObserveTick(tick("XAUUSD", 2000+float64(i)))
	}
	d := eng.Fused("XAUUSD")
	if d.Symbol != "XAUUSD" {
		t.Fatalf("fused decision symbol = %q", d.Symbol)
	}
	if d.Regime != "trend" {
		t.Fatalf("steady climb must fuse in trend regime, got %q", d.Regime)
	}
}
