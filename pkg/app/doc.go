// Package app assembles the framework for one process. It owns the shared
// collaborators (database pool, cache provider, event bus, audit pipeline)
// that entity repositories borrow, and releases them together on Close.
package app
