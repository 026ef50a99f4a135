package events

// Action represents an entity lifecycle transition
type Action string

const (
	ActionCreated         Action = "created"
	ActionUpdated         Action = "updated"
	ActionDeleted         Action = "deleted"
	ActionRemoved         Action = "removed"
	ActionRestored        Action = "restored"
	ActionStatusChanged   Action = "status_changed"
	ActionPasswordChanged Action = "password_changed"
)

// HistoryChannel carries every entity lifecycle event.
const HistoryChannel = "history"

// LifecycleEvent is the in-process message describing a committed entity
// mutation. IDs is an ordered sequence so batch mutations publish one event.
type LifecycleEvent struct {
	Entity string
	IDs    []int64
	Action Action
	Extra  map[string]interface{}
}
