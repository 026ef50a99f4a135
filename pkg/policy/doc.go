// Package policy provides the per-entity authorization gate consulted by
// controllers before any repository operation.
//
// # Overview
//
// One Engine is built per protected entity, parameterized by the entity's
// permission namespace. Every guard follows the same two-step algorithm:
//
//  1. If the actor is not authenticated, fail with Unauthorized.
//  2. Compute "<entity>.<operation>"; if the actor is neither an admin nor a
//     holder of that permission, fail with Forbidden.
//
// Restore shares the delete permission: CanRestore is an alias for CanDelete.
//
// # Usage
//
//	engine := policy.NewEngine("user")
//	if err := engine.CanDelete(actor); err != nil {
//		return err // Unauthorized or Forbidden, rendered by the routing layer
//	}
//	scope := query.NewScope(db, userMeta, notifier).WithDeleted(engine.AllowDeleted(actor))
//
// # Permission Strings
//
// Permission strings have the shape "<entity>.<operation>" with exactly one
// dot. Malformed literals are validated eagerly and panic with a
// ProgrammingError; they are never silently treated as a denied check.
package policy
