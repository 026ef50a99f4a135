package policy

// Operation represents an action that can be performed on an entity
type Operation string

const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationFind   Operation = "find"
)

// Actor is the authenticated (or anonymous) identity a guard evaluates.
// ID is nil for anonymous work. Admin actors bypass granular permissions.
type Actor struct {
	ID          *int64
	Label       string
	Admin       bool
	permissions map[string]struct{}
}

// NewActor creates an authenticated actor holding the given permission
// strings.
func NewActor(id int64, label string, admin bool, permissions ...string) Actor {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return Actor{
		ID:          &id,
		Label:       label,
		Admin:       admin,
		permissions: set,
	}
}

// Anonymous returns an unauthenticated actor.
func Anonymous() Actor {
	return Actor{Label: "unknown"}
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.ID != nil
}

// HasPermission reports whether the actor holds the exact permission string.
// Admin status is not consulted here; guards apply the bypass themselves.
func (a Actor) HasPermission(permission string) bool {
	_, ok := a.permissions[permission]
	return ok
}
