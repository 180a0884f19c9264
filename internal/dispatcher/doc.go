// Package dispatcher routes normalized fault events to registered handlers
// in priority order.
//
// # Registry
//
// Handlers are registered under a unique identifier with an integer
// priority (DefaultPriority when unspecified). Higher priorities run first.
// The dispatch order is a cached, derived view: every mutation of the
// registry invalidates it and the next read recomputes it with a stable
// sort, so handlers of equal priority keep their registration order.
//
// # Dispatch
//
// When an event is dispatched:
//
//  1. Events with severity None are dropped without invoking anything.
//  2. Handlers are called in order with the event.
//  3. The first handler that reports the event as handled stops dispatch.
//  4. A handler that panics or returns an error is isolated: its failure is
//     turned into an Error event and shown only by the fallback handler,
//     then dispatch continues with the next handler.
//
// The fallback never goes back through the registry, so a failing handler
// cannot cause recursive dispatch.
//
// # Handlers
//
// Handlers implement the Handler interface:
//
//	type Handler interface {
//	    HandleFault(ev fault.Event) (handled bool, err error)
//	}
//
// HandlerFunc adapts plain functions:
//
//	d := dispatcher.NewWithDefaults()
//	d.RegisterFunc("audit", func(ev fault.Event) (bool, error) {
//	    audit.Record(ev.Message)
//	    return false, nil
//	}, 50)
//
// # Metrics
//
// When enabled, Metrics records dispatch counts and durations in memory and
// mirrors them into Prometheus collectors.
package dispatcher
