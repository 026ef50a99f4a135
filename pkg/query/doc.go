// Package query provides the generic, filterable, soft-delete-aware
// repository scope every feature module composes.
//
// # Overview
//
// A Meta describes one entity's table mapping; a Scope is a cheap per-call
// builder over it:
//
//	users := query.NewScope(db, userMeta, notifier).
//		FilterBy("status", "active").
//		FilterByTerm(term).
//		OrderBy("name", "asc").
//		Pagination(2, 25)
//	items, total, err := users.All(ctx, true)
//
// Filtering is additive: calling the same filter twice narrows the result
// (AND), it never replaces the earlier predicate. Filters with nil values
// are no-ops so optional request parameters pass straight through.
//
// # Soft Delete
//
// Scopes exclude soft-deleted rows unless WithDeleted(true) is set;
// controllers gate that behind policy.AllowDeleted. Delete soft-deletes by
// default (query.Hard() removes rows) and Restore clears deleted_at on
// previously soft-deleted matches. Mutations publish one lifecycle event
// after the write commits and before they return; a zero-row mutation
// publishes nothing.
//
// # Per-entity Composition
//
// Feature modules add named filters by embedding a scope in their own type
// and delegating, keeping domain filters next to the entity definition.
package query
