// Package outbox decouples device command emission from delivery. Send
// enqueues without blocking; a single worker delivers in order.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lego-house/internal/application"
	"lego-house/internal/domain"
	"lego-house/internal/infra"
)

// ErrQueueFull is returned by Send when the queue cannot take another
// command. The command is dropped.
var ErrQueueFull = errors.New("outbox: queue full")

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("outbox: closed")

type Queue struct {
	next   application.Transport
	retry  infra.RetryConfig
	logger *slog.Logger

	ch     chan domain.Command
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func New(next application.Transport, size int, retry infra.RetryConfig, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{
		next:   next,
		retry:  retry,
		logger: logger,
		ch:     make(chan domain.Command, size),
		done:   make(chan struct{}),
	}
}

// Start runs the delivery worker until ctx is done or Close is called.
func (q *Queue) Start(ctx context.Context) {
	go q.run(ctx)
}

func (q *Queue) Send(_ context.Context, cmd domain.Command) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	select {
	case q.ch <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting commands and waits for queued ones to be attempted.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) Pending() int {
	return len(q.ch)
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)

	for cmd := range q.ch {
		q.deliver(ctx, cmd)
	}
}

func (q *Queue) deliver(ctx context.Context, cmd domain.Command) {
	start := time.Now()
	err := infra.WithRetryNotify(ctx, q.retry, func() error {
		return q.next.Send(ctx, cmd)
	}, func(err error, wait time.Duration) {
		q.logger.Warn("retrying device command", "id", cmd.ID, "target", cmd.Target, "wait", wait, "error", err)
	})
	if err != nil {
		q.logger.Error("device command lost", "id", cmd.ID, "target", cmd.Target, "error", err)
		return
	}
	q.logger.Debug("device command delivered", "id", cmd.ID, "target", cmd.Target, "took", time.Since(start))
}
