// Package worker delivers engine frames from the queue to consumers such as
// the audio cue player and the event log.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/motionparty/internal/adapters/mq/queue"
	"github.com/okian/motionparty/pkg/logger"
	"github.com/okian/motionparty/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 5 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Sink consumes frames. Handle must return promptly; slow sinks back up the
// queue, which then drops frames instead of stalling the engine.
type Sink interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	ID string
	Fn func(ctx context.Context, e Event) error
}

// Name implements Sink.
func (s SinkFunc) Name() string { return s.ID }

// Handle implements Sink.
func (s SinkFunc) Handle(ctx context.Context, e Event) error { return s.Fn(ctx, e) }

// Queue defines how workers receive frames.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes frames until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker hands each frame to every sink in order.
type InMemoryWorker struct {
	queue Queue
	sinks []Sink
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sinks []Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		sinks:    sinks,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	frames := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if err := w.dispatch(ctx, f); err != nil {
				w.logger.Warn(ctx, "sink failed", logger.String("worker", w.name), logger.Uint64("tick", f.Tick), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// dispatch delivers f to every sink. A failing sink does not stop the others.
func (w *InMemoryWorker) dispatch(ctx context.Context, f Event) error { //nolint:gocritic // hugeParam: frames are values by contract
	start := time.Now()
	defer func() { metrics.RecordDispatchLatency(time.Since(start)) }()

	var errs []error
	for _, s := range w.sinks {
		if err := s.Handle(ctx, f); err != nil {
			metrics.RecordSinkError(s.Name())
			metrics.RecordErrorByComponent("worker", s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. Frames are only ordered
// when workerCount is 1.
func NewPool(workerCount int, q Queue, sinks ...Sink) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, sinks, WithName("worker-"+strconv.Itoa(i)))
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}
