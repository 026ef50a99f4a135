// Package events provides the process-wide lifecycle event bus and the
// notification port persistence collaborators call around their commits.
package events

import (
	"context"
	"sync"

	"github.com/chassis-framework/chassis/pkg/async"
	"github.com/chassis-framework/chassis/pkg/observability"
	"github.com/chassis-framework/chassis/pkg/reqctx"
)

// Handler consumes one published event. The context carries the request
// snapshot of the unit of work that triggered the mutation, detached from
// its cancellation, so handlers keep working after the request finishes.
type Handler func(ctx context.Context, event LifecycleEvent)

// Bus is a typed publish/subscribe channel keyed by channel name. Exactly one
// instance exists per process; it is safe for concurrent use. Subscribers are
// bound once at process start, before any publish.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]Handler
	wg      sync.WaitGroup
	metrics *observability.Metrics
}

// NewBus creates an event bus. metrics may be nil.
func NewBus(metrics *observability.Metrics) *Bus {
	return &Bus{
		subs:    make(map[string][]Handler),
		metrics: metrics,
	}
}

// Subscribe binds a handler to a channel.
func (b *Bus) Subscribe(channel string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = append(b.subs[channel], handler)
}

// Publish delivers event to every subscriber of channel. Handlers run
// asynchronously; Publish itself returns immediately, so a mutating call can
// publish before returning without waiting on subscriber I/O. The handler
// context keeps the caller's request snapshot but not its cancellation.
func (b *Bus) Publish(ctx context.Context, channel string, event LifecycleEvent) {
	b.mu.RLock()
	handlers := b.subs[channel]
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.EventsPublishedTotal.WithLabelValues(channel, string(event.Action)).Inc()
	}

	detached := reqctx.Detach(ctx)
	for _, handler := range handlers {
		h := handler
		async.Go(detached, channel+"."+string(event.Action), nil, &b.wg, func(ctx context.Context) {
			h(ctx, event)
		})
	}
}

// Wait blocks until all in-flight handler dispatches finish. Used on
// graceful shutdown and in tests; publishers never call it.
func (b *Bus) Wait() {
	b.wg.Wait()
}
