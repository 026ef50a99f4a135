package audit

import (
	"context"

	"github.com/chassis-framework/chassis/pkg/cache"
	"github.com/chassis-framework/chassis/pkg/events"
	"github.com/chassis-framework/chassis/pkg/observability"
)

// Invalidator drops cached reads for every entity a lifecycle event names.
// Binding it next to the audit pipeline keeps cache state honest without
// mutation call sites knowing the cache exists.
type Invalidator struct {
	provider *cache.Provider
	logger   *observability.Logger
}

// NewInvalidator creates an invalidator over the given cache provider.
func NewInvalidator(provider *cache.Provider, logger *observability.Logger) *Invalidator {
	return &Invalidator{
		provider: provider,
		logger:   logger,
	}
}

// Bind subscribes the invalidator to the bus. Call once during wiring.
func (i *Invalidator) Bind(bus *events.Bus) {
	bus.Subscribe(events.HistoryChannel, i.handle)
}

func (i *Invalidator) handle(ctx context.Context, event events.LifecycleEvent) {
	for _, id := range event.IDs {
		if err := i.provider.Clean(ctx, event.Entity, id); err != nil {
			i.logger.WithRequestContext(ctx).WithError(err).
				WithField("entity", event.Entity).
				WithField("entity_id", id).
				Warn("failed to invalidate cache")
		}
	}
}
