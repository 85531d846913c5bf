package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	confidence    *prometheus.GaugeVec
	outcomesTotal *prometheus.CounterVec
	posteriorMean *prometheus.GaugeVec
	lastPrice     *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		confidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "goldpulse_confidence",
				Help: "Last fused confidence per symbol and direction",
			},
			[]string{"symbol", "direction"},
		),
		outcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldpulse_outcomes_total",
				Help: "Total number of trade outcomes applied",
			},
			[]string{"symbol", "result"},
		),
		posteriorMean: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "goldpulse_posterior_mean",
				Help: "Posterior mean reliability per symbol and signal",
			},
			[]string{"symbol", "signal"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "goldpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goldpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goldpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordConfidence records the latest evaluated confidence.
func (r *Recorder) RecordConfidence(symbol, direction string, confidence float64) {
	r.confidence.WithLabelValues(symbol, direction).Set(confidence)
}

// RecordOutcome counts an applied trade outcome by result.
func (r *Recorder) RecordOutcome(symbol, result string) {
	r.outcomesTotal.WithLabelValues(symbol, result).Inc()
}

// RecordPosteriorMean records the posterior mean for a signal model.
func (r *Recorder) RecordPosteriorMean(symbol, signal string, mean float64) {
	r.posteriorMean.WithLabelValues(symbol, signal).Set(mean)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
