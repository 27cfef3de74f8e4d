package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/gamemaps/viewer/internal/queue"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Backend is the durable key-value store the writer drains into.
type Backend interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Writer applies preference writes on a single goroutine.
// Put never blocks the caller; a pending value for a key is replaced by a
// later Put to the same key, so the last write wins.
type Writer struct {
	backend Backend
	logger  Logger

	pending *queue.Keyed[string, string]

	wake    chan struct{}
	flushes chan chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	coalesced metric.Int64Counter
	failed    metric.Int64Counter
}

// New starts a writer over backend.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(backend Backend, logger Logger) (*Writer, error) {
	w := &Writer{
		backend: backend,
		logger:  logger,
		pending: queue.New[string, string](),
		wake:    make(chan struct{}, 1),
		flushes: make(chan chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	m := meter()

	var err error

	w.queueSize, err = m.Int64ObservableGauge(
		"prefs.queue.size",
		metric.WithDescription("Current number of keys waiting to be written"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(w.queueSize, int64(w.pending.Len()))
			return nil
		},
		w.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	w.processed, err = m.Int64Counter(
		"prefs.writes.processed",
		metric.WithDescription("Total preference writes applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	w.coalesced, err = m.Int64Counter(
		"prefs.writes.coalesced",
		metric.WithDescription("Total writes replaced by a later write to the same key"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating coalesced counter: %w", err)
	}

	w.failed, err = m.Int64Counter(
		"prefs.writes.failed",
		metric.WithDescription("Total writes rejected by the backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	go w.run()
	return w, nil
}

// Put schedules value to be written under key.
func (w *Writer) Put(key, value string) {
	select {
	case <-w.done:
		w.logger.Error("write after close dropped", "key", key)
		return
	default:
	}

	if w.pending.Push(key, value) {
		w.coalesced.Add(context.Background(), 1)
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Get returns the pending value for key if one is queued, else the stored one.
func (w *Writer) Get(key string) (string, bool, error) {
	if v, ok := w.pending.Peek(key); ok {
		return v, true, nil
	}
	return w.backend.Get(key)
}

// Pending returns the number of keys waiting to be written.
func (w *Writer) Pending() int {
	return w.pending.Len()
}

// Flush blocks until every write queued before the call has been applied.
func (w *Writer) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flushes <- reply:
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the writer.
func (w *Writer) Close() {
	w.once.Do(func() { close(w.done) })
	<-w.stopped
}

func (w *Writer) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case reply := <-w.flushes:
			w.drain()
			close(reply)
		case <-w.done:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		key, value, ok := w.pending.Pop()
		if !ok {
			return
		}
		w.apply(key, value)
	}
}

func (w *Writer) apply(key, value string) {
	start := time.Now()
	if err := w.backend.Set(key, value); err != nil {
		w.failed.Add(context.Background(), 1)
		w.logger.Error("preference write failed", "key", key, "error", err)
		return
	}
	w.processed.Add(context.Background(), 1)
	w.logger.Debug("preference written", "key", key, "duration", time.Since(start))
}
