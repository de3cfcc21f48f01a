// Package event delivers domain events to in-process handlers after the
// writing transaction has committed. Delivery is best effort: handler errors
// and panics are logged and never reach the publisher.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when publishing to a bus that has been stopped
var ErrBusStopped = errors.New("event bus stopped")

const defaultBufferSize = 256

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus implements shared.EventBus. Before Start it dispatches
// synchronously on the publisher's goroutine; once started, events are queued
// and handled by one worker in publish order. A full queue falls back to
// synchronous dispatch rather than dropping events.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	queue    chan envelope

	mu      sync.RWMutex // guards running/stopped against queue close
	running bool
	stopped bool
	wg      sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
}

// NewInMemoryEventBus creates a new in-memory event bus. A bufferSize of 0
// uses the default.
func NewInMemoryEventBus(logger *zap.Logger, bufferSize int) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
		queue:    make(chan envelope, bufferSize),
	}
}

// Publish delivers events to every handler registered for their type
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		return ErrBusStopped
	}

	// handlers run after the request may have finished
	ctx = context.WithoutCancel(ctx)
	for _, event := range events {
		if event == nil {
			continue
		}
		if !b.running {
			b.dispatch(ctx, event)
			continue
		}
		select {
		case b.queue <- envelope{ctx: ctx, event: event}:
		default:
			b.logger.Warn("event queue full, dispatching inline",
				zap.String("event_type", event.EventType()))
			b.dispatch(ctx, event)
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit event types the handler's
// own EventTypes are used; if those are empty too it receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the dispatch worker
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrBusStopped
	}
	if b.running {
		return nil
	}
	b.running = true
	b.wg.Add(1)
	go b.run()
	b.logger.Info("event bus started", zap.Int("buffer", cap(b.queue)))
	return nil
}

// Stop closes the queue and waits for queued events to be handled, or for
// ctx to expire
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	wasRunning := b.running
	b.running = false
	close(b.queue)
	b.mu.Unlock()

	if !wasRunning {
		return nil
	}
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped",
			zap.Int64("delivered", b.delivered.Load()),
			zap.Int64("failed", b.failed.Load()),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns how many handler invocations succeeded and failed
func (b *InMemoryEventBus) Stats() (delivered, failed int64) {
	return b.delivered.Load(), b.failed.Load()
}

func (b *InMemoryEventBus) run() {
	defer b.wg.Done()
	for env := range b.queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	ctx, span := telemetry.StartSpan(ctx, "event."+event.EventType(),
		telemetry.WithAttribute(telemetry.SpanAttrEventType, event.EventType()),
		telemetry.WithAttribute(telemetry.SpanAttrAggregateID, event.AggregateID().String()),
	)
	defer span.End()

	for _, handler := range b.registry.HandlersFor(event.EventType()) {
		if err := b.handle(ctx, handler, event); err != nil {
			b.failed.Add(1)
			telemetry.RecordError(span, err)
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err),
			)
			continue
		}
		b.delivered.Add(1)
	}
}

func (b *InMemoryEventBus) handle(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
			err = errors.New("handler panicked")
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
