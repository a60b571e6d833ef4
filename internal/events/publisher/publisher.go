// Package publisher fans pool notifications out to every configured sink,
// either inline or through a bounded background queue.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"donationpool/internal/pool/models"
)

var (
	ErrBufferFull = errors.New("event buffer full")
	ErrClosed     = errors.New("publisher closed")
)

// Sink receives batches of notifications.
type Sink interface {
	Publish(ctx context.Context, events []models.Event) error
}

type batch struct {
	ctx    context.Context
	events []models.Event
}

// Publisher delivers each batch to all sinks in registration order.
type Publisher struct {
	sinks  []Sink
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	queue   chan batch
	done    chan struct{}
	dropped atomic.Int64
}

type Option func(*Publisher)

// WithAsyncBuffer queues batches for a background worker. A full queue
// rejects the batch with ErrBufferFull instead of blocking the caller.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan batch, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func New(sinks []Sink, opts ...Option) *Publisher {
	p := &Publisher{sinks: sinks}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Publish delivers events. In synchronous mode every sink is tried and their
// failures are joined; in async mode only enqueueing can fail.
func (p *Publisher) Publish(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if p.queue == nil {
		return p.deliver(ctx, events)
	}

	select {
	case p.queue <- batch{ctx: context.WithoutCancel(ctx), events: events}:
		return nil
	default:
		p.dropped.Add(1)
		return ErrBufferFull
	}
}

// Close stops accepting batches and waits for queued ones to be delivered.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.queue != nil {
		close(p.queue)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
}

// Dropped returns how many batches a full queue rejected.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) run() {
	defer close(p.done)
	for b := range p.queue {
		if err := p.deliver(b.ctx, b.events); err != nil && p.logger != nil {
			p.logger.WarnContext(b.ctx, "failed to deliver pool events", "count", len(b.events), "error", err)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, events []models.Event) error {
	var errs []error
	for i, sink := range p.sinks {
		if err := sink.Publish(ctx, events); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
