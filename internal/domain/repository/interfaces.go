package repository

import (
	"context"
	"errors"
	"time"

	"GoldPulse/internal/domain/models"
)

// ErrStaleVolatility is returned by VolatilityFeed.Latest when the last
// published reading is older than the configured expiry.
var ErrStaleVolatility = errors.New("volatility reading is stale")

// BayesStateStore persists the full reliability state map as one
// durable snapshot. Implementations must treat a missing or corrupt
// snapshot as recoverable: return the error alongside an empty map so
// the caller can log and continue with defaults.
type BayesStateStore interface {
	Load(ctx context.Context) (map[string]*models.SymbolState, error)
	Save(ctx context.Context, state map[string]*models.SymbolState) error
}

// WeightStateStore persists the dynamic weighting track record.
type WeightStateStore interface {
	Load(ctx context.Context) (map[string]models.SymbolWeights, error)
	Save(ctx context.Context, state map[string]models.SymbolWeights) error
}

// OutcomeAudit appends applied trade outcomes to durable storage for
// offline analysis. Best-effort: callers never fail the learning path
// on audit errors.
type OutcomeAudit interface {
	Append(ctx context.Context, rec *models.OutcomeRecord) error
	Recent(ctx context.Context, symbol string, limit int) ([]*models.OutcomeRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// UpdatePublisher broadcasts applied outcomes to sibling processes.
type UpdatePublisher interface {
	Publish(ctx context.Context, rec *models.OutcomeRecord) error
	Close() error
}

// VolatilityFeed shares the latest volatility reading per symbol with a
// staleness check, replacing the original's file polling.
type VolatilityFeed interface {
	Publish(ctx context.Context, symbol string, vol float64) error
	// Latest returns the most recent reading and its age, or
	// ErrStaleVolatility when expired or absent.
	Latest(ctx context.Context, symbol string) (vol float64, age time.Duration, err error)
}

// MarketStream is a live price feed from the terminal bridge.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational and learning metrics.
type Metrics interface {
	RecordConfidence(symbol, direction string, confidence float64)
	RecordOutcome(symbol, result string)
	RecordPosteriorMean(symbol, signal string, mean float64)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
