package api

import (
	"time"

	models "GoldPulse/internal/domain/models"
	"GoldPulse/internal/middleware"
	icache "GoldPulse/internal/service/cache"
	"GoldPulse/internal/service/ratelimit"
	"GoldPulse/internal/services/bayes"
	"GoldPulse/internal/services/signals"
	"GoldPulse/internal/services/weights"
	"GoldPulse/internal/usecase"
	xhttp "GoldPulse/pkg/http"
	xlogger "GoldPulse/pkg/logger"
	xutil "GoldPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	fusedCacheTTL = 2 * time.Second
	stateCacheTTL = 5 * time.Second

	outcomeRateCapacity = 50
	outcomeRatePerSec   = 25
)

// DecisionEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type DecisionEchoHandler struct {
	logger   *xlogger.Logger
	engine   *usecase.DecisionEngine
	outcomes *usecase.OutcomeProcessor
	pipeline *middleware.OutcomePipeline
	weights  *weights.Tracker
	store    *bayes.ReliabilityStore
	cache    *icache.TTLCache
	limiter  *ratelimit.Limiter
}

func NewDecisionEchoHandler(
	logger *xlogger.Logger,
	engine *usecase.DecisionEngine,
	outcomes *usecase.OutcomeProcessor,
	pipeline *middleware.OutcomePipeline,
	tracker *weights.Tracker,
	store *bayes.ReliabilityStore,
) *DecisionEchoHandler {
	return &DecisionEchoHandler{
		logger:   logger,
		engine:   engine,
		outcomes: outcomes,
		pipeline: pipeline,
		weights:  tracker,
		store:    store,
		cache:    icache.NewTTLCache(),
		limiter:  ratelimit.New(),
	}
}

func (h *DecisionEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/confidence", h.Confidence)
	g.POST("/decision", h.Decision)
	g.POST("/outcome", h.Outcome)
	g.GET("/fused", h.Fused)
	g.GET("/weights", h.Weights)
	g.GET("/state", h.State)
	g.GET("/outcomes", h.Outcomes)
}

// Confidence scores a proposed trade without registering it.
func (h *DecisionEchoHandler) Confidence(c echo.Context) error {
	req := &models.ConfidenceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	eval := h.evaluate(req)
	return xhttp.SuccessResponse(c, eval)
}

// Decision scores a proposed trade and registers the evidence bundle
// under the trade id for the later outcome update.
func (h *DecisionEchoHandler) Decision(c echo.Context) error {
	req := &models.DecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	eval := h.evaluate(&req.ConfidenceRequest)
	h.engine.Decide(req.TradeID, req.Symbol, models.Direction(req.Direction), eval)
	h.logger.Info("decision registered",
		xlogger.String("trade_id", req.TradeID),
		xlogger.String("symbol", req.Symbol),
		xlogger.String("action", eval.Policy.Action),
		xlogger.Float64("confidence", eval.Confidence.Confidence),
	)
	return xhttp.CreatedResponse(c, eval)
}

// Outcome reports a realized trade close. The outcome pipeline
// deduplicates trade ids, so retried deliveries are safe.
func (h *DecisionEchoHandler) Outcome(c echo.Context) error {
	if !h.limiter.Allow("outcome:"+c.RealIP(), outcomeRateCapacity, outcomeRatePerSec) {
		return xhttp.TooManyRequestsResponse(c, "rate limit exceeded")
	}
	req := &models.OutcomeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	out := &models.Outcome{
		TradeID:  req.TradeID,
		PnL:      req.PnL,
		ClosedAt: time.Now().UTC(),
		Source:   req.Source,
	}
	if err := h.pipeline.Process(c.Request().Context(), out); err != nil {
		h.logger.Error("outcome process error", xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, map[string]any{"accepted": true, "trade_id": req.TradeID})
}

// Fused returns the weighted-logit blend of all signal posteriors for
// the live market context.
func (h *DecisionEchoHandler) Fused(c echo.Context) error {
	req := &models.FusedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := "fused:" + req.Symbol
	if v, ok := h.cache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}
	res := h.engine.Fused(req.Symbol)
	h.cache.Set(key, res, fusedCacheTTL)
	return xhttp.SuccessResponse(c, res)
}

// Weights returns the current normalized blend weights for a symbol.
func (h *DecisionEchoHandler) Weights(c echo.Context) error {
	req := &models.WeightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	names := req.Signals
	if len(names) == 0 {
		names = signals.Names()
	}
	w := h.weights.Compute(req.Symbol, names, req.Regime, req.Vol)
	return xhttp.SuccessResponse(c, w)
}

// State returns the reliability snapshot, optionally for one symbol.
func (h *DecisionEchoHandler) State(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	key := "state:" + symbol
	if v, ok := h.cache.Get(key); ok {
		return xhttp.SuccessResponse(c, v)
	}
	snap := h.store.Snapshot()
	if symbol != "" {
		filtered := make(map[string]*models.SymbolState, 1)
		if st, ok := snap[symbol]; ok {
			filtered[symbol] = st
		}
		snap = filtered
	}
	h.cache.Set(key, snap, stateCacheTTL)
	return xhttp.SuccessResponse(c, snap)
}

// Outcomes returns recent applied outcomes from the audit store.
func (h *DecisionEchoHandler) Outcomes(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}
	limit := xutil.ParseIntDefault(c.QueryParam("limit"), 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := h.outcomes.Recent(c.Request().Context(), symbol, limit)
	if err != nil {
		h.logger.Error("outcomes query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *DecisionEchoHandler) evaluate(req *models.ConfidenceRequest) usecase.Evaluation {
	direction := models.Direction(req.Direction)
	if len(req.Evidence) > 0 {
		return h.engine.EvaluateEvidence(req.Symbol, direction, req.Evidence)
	}
	if req.KalmanSlope != nil || req.OUZScore != nil || req.StochFast != nil {
		vol, drift := h.engine.Volatility(req.Symbol)
		in := signals.EvidenceInputs{
			KalmanSlope: req.KalmanSlope,
			OUZScore:    req.OUZScore,
			StochFast:   req.StochFast,
			StochSlow:   req.StochSlow,
		}
		return h.engine.EvaluateWithInputs(req.Symbol, direction, in, vol, drift)
	}
	return h.engine.Evaluate(req.Symbol, direction)
}
