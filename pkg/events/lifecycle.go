package events

import (
	"context"
	"time"

	"github.com/chassis-framework/chassis/pkg/observability"
)

// EntityState is the persistence collaborator's view of one row around a
// mutation. DeletedAt is nil both for live rows and for entities that have no
// soft-delete column at all; such entities are never reported as restored.
type EntityState struct {
	ID        int64
	DeletedAt *time.Time
}

// Notifier is the explicit lifecycle port. Persistence hooks call
// NotifyLifecycle synchronously around their commits; repository code calls
// LogHistory directly when it already knows the action.
type Notifier struct {
	bus    *Bus
	logger *observability.Logger
}

// NewNotifier creates a lifecycle notifier publishing on bus.
func NewNotifier(bus *Bus, logger *observability.Logger) *Notifier {
	return &Notifier{bus: bus, logger: logger}
}

// LogHistory publishes one LifecycleEvent on the history channel. A call
// with no ids publishes nothing: an operation that changed zero rows has no
// history.
func (n *Notifier) LogHistory(ctx context.Context, entity string, ids []int64, action Action, extra map[string]interface{}) {
	if len(ids) == 0 {
		return
	}

	n.logger.WithRequestContext(ctx).
		WithFields(map[string]interface{}{"entity": entity, "action": string(action), "ids": ids}).
		Debug("lifecycle event")

	n.bus.Publish(ctx, HistoryChannel, LifecycleEvent{
		Entity: entity,
		IDs:    ids,
		Action: action,
		Extra:  extra,
	})
}

// NotifyLifecycle is called by the persistence collaborator after a commit,
// with the pre- and post-mutation snapshots. An update whose previous
// deletedAt was set and whose next deletedAt is null is reported as a
// restore; every other update stays an update.
func (n *Notifier) NotifyLifecycle(ctx context.Context, entity string, action Action, before, after *EntityState) {
	if action == ActionUpdated && before != nil && after != nil {
		if before.DeletedAt != nil && after.DeletedAt == nil {
			action = ActionRestored
		}
	}

	state := after
	if state == nil {
		state = before
	}
	if state == nil {
		return
	}

	n.LogHistory(ctx, entity, []int64{state.ID}, action, nil)
}
