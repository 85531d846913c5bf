package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"GoldPulse/internal/domain/models"
)

type fakeStream struct {
	mu         sync.Mutex
	connected  bool
	subscribed bool
	reconnects int

	ticks chan *models.Tick
	errs  chan error
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		ticks: make(chan *models.Tick, 16),
		errs:  make(chan error, 1),
	}
}

func (s *fakeStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *fakeStream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = true
	return nil
}

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	return s.ticks, s.errs
}

func (s *fakeStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	s.connected = true
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTickWatcherFeedsEngine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream()
	engine := newTestEngine(&stubScorer{}, nil)
	w := NewTickWatcher(stream, engine, nil)

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !w.IsConnected() {
		t.Fatal("watcher should report connected")
	}
	if !stream.subscribed {
		t.Fatal("stream should be subscribed")
	}

	for i := 0; i < 5; i++ {
		stream.ticks <- tick("XAUUSD", 2000+float64(i))
	}
	waitFor(t, func() bool { return engine.HistoryLen("XAUUSD") == 5 })
}

func TestTickWatcherIgnoresNilTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream()
	engine := newTestEngine(&stubScorer{}, nil)
	w := NewTickWatcher(stream, engine, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stream.ticks <- nil
	stream.ticks <- tick("XAUUSD", 2001)
	waitFor(t, func() bool { return engine.HistoryLen("XAUUSD") == 1 })
}

func TestTickWatcherReconnectsOnStreamError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream()
	engine := newTestEngine(&stubScorer{}, nil)
	w := NewTickWatcher(stream, engine, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stream.errs <- context.DeadlineExceeded
	waitFor(t, func() bool { return stream.reconnectCount() == 1 })

	// ticks still flow after the reconnect re-armed the channels
	stream.ticks <- tick("XAUUSD", 2002)
	waitFor(t, func() bool { return engine.HistoryLen("XAUUSD") == 1 })
}

func TestTickWatcherShutdownClosesStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStream()
	engine := newTestEngine(&stubScorer{}, nil)
	w := NewTickWatcher(stream, engine, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	if err := w.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if stream.IsConnected() {
		t.Fatal("stream should be closed")
	}
}
