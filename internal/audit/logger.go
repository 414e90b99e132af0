package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valinor-ai/navgate/internal/platform/database"
)

// LoggerConfig configures the async audit logger.
type LoggerConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	FlushTimeout  time.Duration
}

func (c *LoggerConfig) setDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = 4096
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 500 * time.Millisecond
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = 5 * time.Second
	}
}

// AsyncLogger implements Logger with a buffered channel and a background
// worker that writes batches to audit_events.
type AsyncLogger struct {
	ch      chan Event
	store   *Store
	db      database.Querier
	cfg     LoggerConfig
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	once    sync.Once
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewAsyncLogger creates and starts an async audit logger.
func NewAsyncLogger(db database.Querier, store *Store, cfg LoggerConfig) *AsyncLogger {
	cfg.setDefaults()
	if store == nil {
		store = NewStore()
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &AsyncLogger{
		ch:     make(chan Event, cfg.BufferSize),
		store:  store,
		db:     db,
		cfg:    cfg,
		cancel: cancel,
	}

	l.wg.Add(1)
	go l.worker(ctx)

	return l
}

// Log enqueues an audit event. It never blocks; events are dropped when the
// buffer is full.
func (l *AsyncLogger) Log(_ context.Context, event Event) {
	select {
	case l.ch <- event:
	default:
		l.dropped.Add(1)
		slog.Warn("audit buffer full, dropping event", "action", event.Action, "path", event.Path)
	}
}

// Dropped counts events lost to a full buffer.
func (l *AsyncLogger) Dropped() uint64 { return l.dropped.Load() }

// Failed counts events whose batch could not be written.
func (l *AsyncLogger) Failed() uint64 { return l.failed.Load() }

// Close flushes remaining events and stops the worker. Further calls are
// no-ops.
func (l *AsyncLogger) Close() error {
	l.once.Do(func() {
		l.cancel()
		l.wg.Wait()
		l.flush(l.drainAll())
	})
	return nil
}

func (l *AsyncLogger) worker(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, l.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			l.flush(append(batch, l.drainAll()...))
			return

		case e := <-l.ch:
			batch = append(batch, e)
			if len(batch) >= l.cfg.BatchSize {
				l.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (l *AsyncLogger) flush(events []Event) {
	if len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.FlushTimeout)
	defer cancel()

	if err := l.store.InsertBatch(ctx, l.db, events); err != nil {
		l.failed.Add(uint64(len(events)))
		slog.Error("audit flush failed", "error", err, "count", len(events))
	}
}

func (l *AsyncLogger) drainAll() []Event {
	var events []Event
	for {
		select {
		case e := <-l.ch:
			events = append(events, e)
		default:
			return events
		}
	}
}

// Tee fans each event out to every logger.
type Tee []Logger

func (t Tee) Log(ctx context.Context, event Event) {
	for _, l := range t {
		l.Log(ctx, event)
	}
}

func (t Tee) Close() error {
	var first error
	for _, l := range t {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
