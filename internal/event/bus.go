// Package event provides the in-process event bus that carries alert
// events from the emergency engine to the webhook and websocket fan-out.
package event

import (
	"context"
	"sync"

	"github.com/HerbHall/moodwatch/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

// Bus is an in-memory implementation of plugin.EventBus.
// Publish runs handlers in the caller's goroutine; PublishAsync starts one
// goroutine per handler and is tracked so Drain can wait for them.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	wildcard []subscription
	nextID   uint64
	inflight sync.WaitGroup
	logger   *zap.Logger
}

type subscription struct {
	id      uint64
	handler plugin.EventHandler
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// Publish delivers the event to topic subscribers, then wildcard subscribers.
func (b *Bus) Publish(ctx context.Context, ev plugin.Event) error {
	for _, s := range b.matching(ev.Topic) {
		b.deliver(ctx, s.handler, ev)
	}
	return nil
}

// PublishAsync delivers the event without blocking the caller.
func (b *Bus) PublishAsync(ctx context.Context, ev plugin.Event) {
	for _, s := range b.matching(ev.Topic) {
		b.inflight.Add(1)
		go func(h plugin.EventHandler) {
			defer b.inflight.Done()
			b.deliver(ctx, h, ev)
		}(s.handler)
	}
}

// Drain blocks until every handler started by PublishAsync has returned.
func (b *Bus) Drain() {
	b.inflight.Wait()
}

// Subscribe registers handler for one topic.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[topic] = without(b.handlers[topic], id)
		if len(b.handlers[topic]) == 0 {
			delete(b.handlers, topic)
		}
	}
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.wildcard = append(b.wildcard, subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.wildcard = without(b.wildcard, id)
	}
}

// matching snapshots the subscribers for topic so handlers can
// subscribe or unsubscribe while an event is in flight.
func (b *Bus) matching(topic string) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]subscription, 0, len(b.handlers[topic])+len(b.wildcard))
	out = append(out, b.handlers[topic]...)
	out = append(out, b.wildcard...)
	return out
}

func (b *Bus) deliver(ctx context.Context, handler plugin.EventHandler, ev plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", ev.Topic),
				zap.String("source", ev.Source),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, ev)
}

func without(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
