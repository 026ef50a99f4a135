// Package async provides safe goroutine execution for background work.
//
// Use Go instead of a bare `go func()` wherever a handler runs outside the
// caller's control flow: a panicking subscriber must never take down the
// process, and a panic must leave a stack trace behind.
package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/chassis-framework/chassis/pkg/observability"
)

// fallback logs panics when the caller didn't supply a logger.
var fallback = observability.NewLogger(observability.ErrorLevel, nil)

// Go executes fn in a goroutine with panic recovery. A recovered panic is
// logged with its stack trace under the given task name. wg, when non-nil,
// is incremented before the goroutine starts and decremented when it ends,
// so callers can drain in-flight work on shutdown. logger may be nil.
func Go(ctx context.Context, taskName string, logger *observability.Logger, wg *sync.WaitGroup, fn func(context.Context)) {
	if logger == nil {
		logger = fallback
	}
	if wg != nil {
		wg.Add(1)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]interface{}{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("recovered panic in background task")
			}
			if wg != nil {
				wg.Done()
			}
		}()

		fn(ctx)
	}()
}
