// Package reqctx carries the ambient request context: who is acting, in what
// request, from what channel, in what language.
//
// A snapshot is bound once at the start of an inbound unit of work (HTTP
// request, cron run, seed run) with Establish and read implicitly by
// everything downstream via Current. Components never take the snapshot as an
// explicit parameter; they read it from the context.Context they already
// thread. Readers must tolerate an unbound context: Current falls back to
// Default rather than failing.
//
// USAGE PATTERN:
//
//	ctx = reqctx.Establish(ctx, reqctx.Context{
//		ActorID:    &userID,
//		ActorLabel: "jdoe",
//		RequestID:  reqctx.NewRequestID(),
//		Source:     reqctx.SourceAPI,
//		Language:   "en",
//	})
//	...
//	rc := reqctx.Current(ctx)
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// Source identifies the channel a unit of work originated from.
type Source string

const (
	SourceCron    Source = "cron"
	SourceAPI     Source = "api"
	SourceSeed    Source = "seed"
	SourceUnknown Source = "unknown"
)

// DefaultLanguage is used when a unit of work carries no locale.
const DefaultLanguage = "en"

// UnknownLabel is the attribution used when no actor is bound.
const UnknownLabel = "unknown"

// Context is an immutable snapshot of the acting identity for one unit of
// work. ActorID is nil for anonymous or system work.
type Context struct {
	ActorID    *int64
	ActorLabel string
	RequestID  string
	Source     Source
	Language   string
}

// Authenticated reports whether the snapshot carries an actor identity.
func (c Context) Authenticated() bool {
	return c.ActorID != nil
}

// Default returns the fallback snapshot used when no context is bound,
// e.g. at process startup.
func Default() Context {
	return Context{
		ActorID:    nil,
		ActorLabel: UnknownLabel,
		RequestID:  "unknown",
		Source:     SourceUnknown,
		Language:   DefaultLanguage,
	}
}

// ctxKey is unexported so only this package can bind the snapshot.
type ctxKey struct{}

// Establish binds snap for the full transitive lifetime of work derived from
// the returned context, including fire-and-forget goroutines that hold on to
// it (pair with Detach when the parent may be cancelled first). Empty fields
// are normalized to their defaults so readers always see a complete snapshot.
func Establish(ctx context.Context, snap Context) context.Context {
	if snap.ActorLabel == "" {
		snap.ActorLabel = UnknownLabel
	}
	if snap.RequestID == "" {
		snap.RequestID = NewRequestID()
	}
	if snap.Source == "" {
		snap.Source = SourceUnknown
	}
	if snap.Language == "" {
		snap.Language = DefaultLanguage
	}
	return context.WithValue(ctx, ctxKey{}, snap)
}

// Current returns the bound snapshot, or Default when none is bound. Absence
// of a snapshot is never fatal.
func Current(ctx context.Context) Context {
	if snap, ok := ctx.Value(ctxKey{}).(Context); ok {
		return snap
	}
	return Default()
}

// Detach returns a context that keeps the bound snapshot (and every other
// context value) but ignores the parent's cancellation and deadline. Work
// scheduled past the lifetime of the triggering request, such as async audit
// writes, uses this so attribution survives the request finishing.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// NewRequestID generates a correlation id for units of work that arrive
// without one (cron and seed runs).
func NewRequestID() string {
	return uuid.NewString()
}
