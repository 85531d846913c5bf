package usecase

import (
	"context"

	"GoldPulse/internal/domain/models"
	drepo "GoldPulse/internal/domain/repository"
)

// TickWatcher feeds the live price stream into the decision engine's
// rolling windows. Stream errors trigger a reconnect and a fresh pair
// of read channels.
type TickWatcher struct {
	stream  drepo.MarketStream
	engine  *DecisionEngine
	metrics drepo.Metrics
}

// NewTickWatcher creates a new TickWatcher instance.
func NewTickWatcher(stream drepo.MarketStream, engine *DecisionEngine, metrics drepo.Metrics) *TickWatcher {
	return &TickWatcher{stream: stream, engine: engine, metrics: metrics}
}

// IsConnected returns true if the market stream is connected.
func (w *TickWatcher) IsConnected() bool {
	return w.stream.IsConnected()
}

func (w *TickWatcher) Start(ctx context.Context) error {
	if err := w.stream.Connect(ctx); err != nil {
		return err
	}
	if err := w.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := w.stream.Read(ctx)
	go w.consume(ctx, tickCh, errCh)
	return nil
}

func (w *TickWatcher) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil && w.metrics != nil {
				w.metrics.RecordError("stream")
			}
			// Reconnect sleeps the configured delay first, so this
			// loop is paced even when the channel is closed.
			if rerr := w.stream.Reconnect(ctx); rerr != nil {
				continue
			}
			// the old read loop died with the connection; re-arm
			tickCh, errCh = w.stream.Read(ctx)
		case t := <-tickCh:
			if t == nil {
				continue
			}
			w.engine.ObserveTick(t)
		}
	}
}

// Shutdown closes the stream.
func (w *TickWatcher) Shutdown(ctx context.Context) error {
	return w.stream.Close()
}
