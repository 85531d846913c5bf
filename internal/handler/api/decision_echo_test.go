package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"GoldPulse/internal/middleware"
	"GoldPulse/internal/services/bayes"
	"GoldPulse/internal/services/weights"
	"GoldPulse/internal/usecase"
	xlogger "GoldPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type testStack struct {
	handler *DecisionEchoHandler
	echo    *echo.Echo
	engine  *bayes.Engine
	store   *bayes.ReliabilityStore
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := bayes.NewReliabilityStore(nil, bayes.StoreConfig{}, nil)
	tracker := weights.NewTracker(nil, weights.Config{}, nil)
	engine := bayes.NewEngine(store, tracker, nil, bayes.EngineConfig{}, nil)
	fusion := usecase.NewFusionEngine(store, tracker, 50, 0.56)
	policy := usecase.NewThresholdPolicy(0.65, 0.08, 0.05)
	dec := usecase.NewDecisionEngine(engine, fusion, policy, nil, nil, nil)
	proc := usecase.NewOutcomeProcessor(engine, nil, nil, nil, nil)
	pipe := middleware.NewOutcomePipeline(proc, nil)

	h := NewDecisionEchoHandler(log, dec, proc, pipe, tracker, store)
	e := echo.New()
	h.RegisterRoutes(e)
	return &testStack{handler: h, echo: e, engine: engine, store: store}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testStack) do(t *testing.T, method, path, body string) envelope {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func TestConfidenceEndpoint(t *testing.T) {
	s := newTestStack(t)

	env := s.do(t, http.MethodPost, "/api/confidence",
		`{"symbol":"XAUUSD","direction":"buy","kalman_slope":2.0}`)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}

	var eval usecase.Evaluation
	if err := json.Unmarshal(env.Data, &eval); err != nil {
		t.Fatalf("decode evaluation: %v", err)
	}
	if eval.Symbol != "XAUUSD" {
		t.Fatalf("symbol = %q", eval.Symbol)
	}
	// positive slope supports a buy
	kf, ok := eval.Evidence["kf_trend"]
	if !ok || kf.Present == nil || !*kf.Present {
		t.Fatalf("kf_trend evidence = %+v, want supporting", kf)
	}
	if eval.Confidence.Confidence <= 0 || eval.Confidence.Confidence >= 1 {
		t.Fatalf("confidence = %v", eval.Confidence.Confidence)
	}
	if eval.Confidence.Prior != 0.5 {
		t.Fatalf("prior = %v, want the fresh symmetric default", eval.Confidence.Prior)
	}
}

func TestConfidenceEndpointRejectsBadDirection(t *testing.T) {
	s := newTestStack(t)
	env := s.do(t, http.MethodPost, "/api/confidence",
		`{"symbol":"XAUUSD","direction":"long"}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestDecisionThenOutcomeRoundTrip(t *testing.T) {
	s := newTestStack(t)

	env := s.do(t, http.MethodPost, "/api/decision",
		`{"trade_id":"T-80","symbol":"XAUUSD","direction":"buy","kalman_slope":3.0}`)
	if env.Status != http.StatusCreated {
		t.Fatalf("decision status = %d", env.Status)
	}
	if got := s.engine.PendingCount(); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}

	env = s.do(t, http.MethodPost, "/api/outcome", `{"trade_id":"T-80","pnl":5.0}`)
	if env.Status != http.StatusOK {
		t.Fatalf("outcome status = %d", env.Status)
	}
	if got := s.engine.PendingCount(); got != 0 {
		t.Fatalf("pending after outcome = %d, want 0", got)
	}

	// the winning trade moved the symbol prior above its default
	if mean := s.store.PriorMean("XAUUSD"); mean <= 0.5 {
		t.Fatalf("prior mean = %v, want > 0.5 after a win", mean)
	}
}

func TestOutcomeEndpointRejectsMissingTradeID(t *testing.T) {
	s := newTestStack(t)
	env := s.do(t, http.MethodPost, "/api/outcome", `{"pnl":1.0}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestWeightsEndpoint(t *testing.T) {
	s := newTestStack(t)
	env := s.do(t, http.MethodGet, "/api/weights?symbol=XAUUSD&regime=range", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}
	var w map[string]float64
	if err := json.Unmarshal(env.Data, &w); err != nil {
		t.Fatalf("decode weights: %v", err)
	}
	if len(w) != 3 {
		t.Fatalf("weights = %v, want 3 entries", w)
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("weights sum = %v", sum)
	}
}

func TestFusedEndpointHoldsWithoutHistory(t *testing.T) {
	s := newTestStack(t)
	env := s.do(t, http.MethodGet, "/api/fused?symbol=XAUUSD", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}
	var fused struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(env.Data, &fused); err != nil {
		t.Fatalf("decode fused: %v", err)
	}
	if fused.Action != "HOLD" {
		t.Fatalf("action = %q, want HOLD with neutral posteriors", fused.Action)
	}
}

func TestStateEndpointFiltersBySymbol(t *testing.T) {
	s := newTestStack(t)
	s.do(t, http.MethodPost, "/api/confidence",
		`{"symbol":"XAUUSD","direction":"buy","kalman_slope":1.0}`)

	env := s.do(t, http.MethodGet, "/api/state?symbol=EURUSD", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d", env.Status)
	}
	var snap map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(snap) != 0 {
		t.Fatalf("state for unknown symbol = %v, want empty", snap)
	}
}

func TestOutcomesEndpointRequiresSymbol(t *testing.T) {
	s := newTestStack(t)
	env := s.do(t, http.MethodGet, "/api/outcomes", "")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}
