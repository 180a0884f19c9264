// Package intercept turns raw faults into normalized events and hands them
// to a dispatcher.
//
// Three entry points cover the ways a fault reaches the program boundary:
// Report for faults the program can continue after, Uncaught for errors
// that escaped every caller, and Shutdown for a fault that aborted execution
// and is picked up at exit. Recover, Guard and Go route panics through
// Uncaught.
package intercept

import (
	"fmt"
	"reflect"

	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/logging"
	"github.com/dshills/faultline/internal/trace"
)

// ShutdownSource labels events produced at process end.
const ShutdownSource = "Shutdown"

// Sink receives normalized events. *dispatcher.Dispatcher satisfies it.
type Sink interface {
	Dispatch(ev fault.Event) bool
}

// Interceptor normalizes faults and forwards them to a Sink.
type Interceptor struct {
	sink          Sink
	recorder      Recorder
	policy        EscalationPolicy
	reconstructor *trace.Reconstructor
	logger        *logging.Logger
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithRecorder sets where aborting faults are remembered.
func WithRecorder(r Recorder) Option {
	return func(i *Interceptor) {
		if r != nil {
			i.recorder = r
		}
	}
}

// WithPolicy sets the escalation policy for recoverable faults.
func WithPolicy(p EscalationPolicy) Option {
	return func(i *Interceptor) {
		if p != nil {
			i.policy = p
		}
	}
}

// WithMaxDepth bounds nested trace expansion in reconstructed traces.
func WithMaxDepth(depth int) Option {
	return func(i *Interceptor) {
		i.reconstructor = trace.NewReconstructor(depth)
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l.WithComponent("intercept")
		}
	}
}

// New creates an Interceptor forwarding to sink.
func New(sink Sink, opts ...Option) *Interceptor {
	i := &Interceptor{
		sink:          sink,
		recorder:      NewMemoryRecorder(),
		policy:        NeverEscalate,
		reconstructor: trace.NewReconstructor(trace.DefaultMaxDepth),
		logger:        logging.Null(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Recorder returns the recorder holding aborting faults.
func (i *Interceptor) Recorder() Recorder {
	return i.recorder
}

// Report handles a recoverable fault raised at file:line.
//
// When the escalation policy selects sev, nothing is dispatched and the
// fault is returned as a *fault.Exception for the caller to propagate; it
// is expected to come back through Uncaught. Otherwise the fault is
// dispatched and Report returns whether a handler claimed it.
func (i *Interceptor) Report(sev fault.Severity, msg, file string, line int) (bool, error) {
	return i.report(1, sev, msg, file, line)
}

// Reportf is Report with a formatted message, located at its caller.
func (i *Interceptor) Reportf(sev fault.Severity, format string, args ...any) (bool, error) {
	file, line := "", 0
	if frames := trace.Capture(1); len(frames) > 0 {
		file, line = frames[0].File, frames[0].Line
	}
	return i.report(1, sev, fmt.Sprintf(format, args...), file, line)
}

func (i *Interceptor) report(skip int, sev fault.Severity, msg, file string, line int) (bool, error) {
	if sev == fault.None {
		return false, nil
	}
	if i.policy.Escalate(sev) {
		i.logger.WithField("severity", sev).Debug("escalating: %s", msg)
		return false, fault.NewExceptionSkip(skip+1, sev, msg).WithLocation(file, line)
	}

	ev := fault.NewEvent(sev, msg).WithLocation(file, line)
	return i.dispatch(ev), nil
}

// Uncaught handles an error that reached the top of its goroutine.
// It reports whether a handler claimed it.
func (i *Interceptor) Uncaught(err error) bool {
	if err == nil {
		return false
	}
	if isNilError(err) {
		err = fault.NewPanicError(err, trace.Capture(1))
	}
	return i.dispatch(fault.FromError(err))
}

// Fatal records a fault that aborts execution without dispatching it. The
// next Shutdown reports it.
func (i *Interceptor) Fatal(sev fault.Severity, msg, file string, line int) {
	i.recorder.Record(Record{
		Severity: sev,
		Message:  msg,
		File:     file,
		Line:     line,
		Frames:   trace.Capture(1),
	})
}

// Shutdown reports the last recorded aborting fault, if any, and forgets
// it. It always returns true: shutdown proceeds normally either way.
func (i *Interceptor) Shutdown() bool {
	rec, ok := i.recorder.Last()
	if !ok {
		return true
	}
	i.recorder.Clear()

	file := rec.File
	if file == "" {
		file = fault.Unknown
	}
	var tr string
	if rec.Frames != nil {
		tr = i.reconstructor.Reconstruct(trace.DefaultStart, rec.Frames)
	} else {
		tr = i.reconstructor.Reconstruct(trace.DefaultStart, trace.Capture(1))
	}

	ev := fault.NewEvent(rec.Severity, rec.Message).
		WithSource(ShutdownSource).
		WithLocation(file, rec.Line).
		WithTrace(tr)
	i.dispatch(ev)
	return true
}

// Recover handles a panic in the calling goroutine. It must be deferred
// directly:
//
//	defer ic.Recover()
func (i *Interceptor) Recover() {
	if r := recover(); r != nil {
		i.handlePanic(r)
	}
}

// Guard runs fn and routes a panic from it through Uncaught. It reports
// whether fn panicked.
func (i *Interceptor) Guard(fn func()) bool {
	recovered, _ := i.Try(fn)
	return recovered
}

// Try is Guard that also reports whether a handler claimed the panic.
func (i *Interceptor) Try(fn func()) (recovered, handled bool) {
	defer func() {
		if r := recover(); r != nil {
			recovered = true
			handled = i.handlePanic(r)
		}
	}()
	fn()
	return false, false
}

// Go runs fn in a new goroutine guarded by Recover.
func (i *Interceptor) Go(fn func()) {
	go func() {
		defer i.Recover()
		fn()
	}()
}

func (i *Interceptor) handlePanic(r any) bool {
	if ex, ok := r.(*fault.Exception); ok && ex != nil {
		return i.Uncaught(ex)
	}
	return i.Uncaught(fault.NewPanicError(r, trace.Capture(1)))
}

func (i *Interceptor) dispatch(ev fault.Event) bool {
	if i.sink == nil {
		return false
	}
	handled := i.sink.Dispatch(ev)
	if !handled {
		i.logger.WithField("severity", ev.Severity).Debug("unhandled fault: %s", ev.Message)
	}
	return handled
}

// isNilError reports a nil pointer or similar wrapped in a non-nil error.
func isNilError(err error) bool {
	rv := reflect.ValueOf(err)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
