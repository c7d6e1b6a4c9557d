package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
)

// ErrQueueFull is returned by Publish when the buffer is exhausted.
var ErrQueueFull = errors.New("local event queue is full")

// LocalQueueConfig tunes the in-process queue.
type LocalQueueConfig struct {
	// Buffer is the number of pending events (default: 256)
	Buffer int
	// MaxRetries is the number of attempts per event before it is dropped (default: 3)
	MaxRetries int
	// RetryDelay is the pause between attempts (default: 1s)
	RetryDelay time.Duration
}

func DefaultLocalQueueConfig() LocalQueueConfig {
	return LocalQueueConfig{
		Buffer:     256,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// LocalQueue delivers events to a handler in-process. The API server uses it
// when no AMQP broker is configured so exports still happen.
type LocalQueue struct {
	handler amqp.Handler
	config  LocalQueueConfig
	events  chan *amqp.FinanceEvent
	logger  *applog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLocalQueue(handler amqp.Handler, config LocalQueueConfig, logger *applog.Logger) *LocalQueue {
	def := DefaultLocalQueueConfig()
	if config.Buffer <= 0 {
		config.Buffer = def.Buffer
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = def.RetryDelay
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &LocalQueue{
		handler: handler,
		config:  config,
		events:  make(chan *amqp.FinanceEvent, config.Buffer),
		logger:  logger.WithComponent(applog.ComponentWorker),
	}
}

// Publish enqueues ev without blocking.
func (q *LocalQueue) Publish(ctx context.Context, ev *amqp.FinanceEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.events <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start begins the delivery loop. Returns an error if already running.
func (q *LocalQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return fmt.Errorf("local queue is already running")
	}
	q.running = true
	q.stopCh = make(chan struct{})
	q.doneCh = make(chan struct{})

	go q.runLoop(ctx, q.stopCh, q.doneCh)

	q.logger.InfoContext(ctx, "Local event queue started", "buffer", q.config.Buffer)
	return nil
}

// Stop drains pending events, then waits for the loop or ctx, whichever ends first.
func (q *LocalQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	stop, done := q.stopCh, q.doneCh
	q.running = false
	q.mu.Unlock()

	close(stop)

	select {
	case <-done:
		q.logger.InfoContext(ctx, "Local event queue stopped")
		return nil
	case <-ctx.Done():
		q.logger.WarnContext(ctx, "Local event queue stop timed out")
		return ctx.Err()
	}
}

func (q *LocalQueue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

func (q *LocalQueue) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-q.events:
			q.deliver(ctx, ev)
		case <-ctx.Done():
			return
		case <-stop:
			q.drain(ctx)
			return
		}
	}
}

func (q *LocalQueue) drain(ctx context.Context) {
	for {
		select {
		case ev := <-q.events:
			q.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (q *LocalQueue) deliver(ctx context.Context, ev *amqp.FinanceEvent) {
	var err error
	for attempt := 1; attempt <= q.config.MaxRetries; attempt++ {
		if err = q.handler(ctx, ev); err == nil {
			return
		}
		q.logger.WarnContext(ctx, "Event handling failed",
			applog.FieldError, err,
			applog.FieldEventKind, ev.Kind,
			"attempt", attempt)
		if attempt == q.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.config.RetryDelay):
		}
	}
	q.logger.ErrorContext(ctx, "Dropping event after max retries",
		applog.FieldError, err,
		applog.FieldEventKind, ev.Kind,
		applog.FieldEntityID, ev.EntityID)
}
