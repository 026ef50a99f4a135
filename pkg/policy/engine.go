package policy

import (
	"regexp"

	"github.com/chassis-framework/chassis/pkg/errs"
)

// permissionPattern is the shape every permission string must match:
// exactly one dot separating entity and operation.
var permissionPattern = regexp.MustCompile(`^[^.]+\.[^.]+$`)

// Engine authorizes operations against one entity's permission namespace.
// One instance is built per protected entity; guards are symmetric and follow
// the same two-step check: authenticated, then admin-or-permission. The
// engine never touches persistence or cache.
type Engine struct {
	entity string
}

// NewEngine creates a policy engine for the given entity namespace, e.g.
// "user" yielding permissions "user.create", "user.read", ...
func NewEngine(entity string) *Engine {
	return &Engine{entity: entity}
}

// Entity returns the permission namespace this engine guards.
func (e *Engine) Entity() string {
	return e.entity
}

// Permission builds the "<entity>.<operation>" string for op. A malformed
// result (entity containing a dot, empty segments) is a caller bug and
// panics with a ProgrammingError before any authentication check runs.
func (e *Engine) Permission(op Operation) string {
	permission := e.entity + "." + string(op)
	if !permissionPattern.MatchString(permission) {
		errs.Programmingf("malformed permission %q", permission)
	}
	return permission
}

// check is the shared guard algorithm: validate the permission literal,
// require an authenticated actor, then require admin or the permission.
func (e *Engine) check(actor Actor, op Operation) error {
	permission := e.Permission(op)

	if !actor.Authenticated() {
		return errs.Unauthorizedf("no authenticated actor for %s", permission)
	}
	if !actor.Admin && !actor.HasPermission(permission) {
		return errs.Forbiddenf("actor %q lacks %s", actor.Label, permission)
	}
	return nil
}

// CanCreate authorizes creating an entity.
func (e *Engine) CanCreate(actor Actor) error { return e.check(actor, OperationCreate) }

// CanRead authorizes reading an entity.
func (e *Engine) CanRead(actor Actor) error { return e.check(actor, OperationRead) }

// CanUpdate authorizes updating an entity.
func (e *Engine) CanUpdate(actor Actor) error { return e.check(actor, OperationUpdate) }

// CanDelete authorizes deleting an entity.
func (e *Engine) CanDelete(actor Actor) error { return e.check(actor, OperationDelete) }

// CanFind authorizes listing/searching entities.
func (e *Engine) CanFind(actor Actor) error { return e.check(actor, OperationFind) }

// CanRestore authorizes restoring a soft-deleted entity. Restore and delete
// are inverse operations on the same capability and share the delete
// permission.
func (e *Engine) CanRestore(actor Actor) error { return e.CanDelete(actor) }

// AllowDeleted reports whether the actor may see soft-deleted rows.
// Delete-capable actors can see what they could also remove; controllers use
// this to gate QueryScope.WithDeleted.
func (e *Engine) AllowDeleted(actor Actor) bool {
	if !actor.Authenticated() {
		return false
	}
	return actor.Admin || actor.HasPermission(e.Permission(OperationDelete))
}

// IsOwner reports whether the actor owns the resource, for modules that want
// "owner OR permission" semantics.
func (e *Engine) IsOwner(actor Actor, ownerID int64) bool {
	return actor.ID != nil && *actor.ID == ownerID
}
