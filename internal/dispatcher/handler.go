package dispatcher

import (
	"fmt"

	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/trace"
)

// Handler receives normalized fault events.
type Handler interface {
	// HandleFault processes ev. Returning true stops dispatch for ev.
	// A non-nil error marks the handler as failed for this event.
	HandleFault(ev fault.Event) (handled bool, err error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev fault.Event) (bool, error)

// HandleFault implements Handler.
func (f HandlerFunc) HandleFault(ev fault.Event) (bool, error) {
	if f == nil {
		return false, nil
	}
	return f(ev)
}

// Observer adapts a function that never claims events, such as a metrics
// or audit hook.
func Observer(fn func(ev fault.Event)) HandlerFunc {
	return func(ev fault.Event) (bool, error) {
		fn(ev)
		return false, nil
	}
}

// Failure describes a handler that panicked or returned an error.
type Failure struct {
	// HandlerID identifies the failing handler.
	HandlerID string
	// Err is the returned error, or a *fault.PanicError for panics.
	Err error
	// Panicked is true when the handler panicked.
	Panicked bool
}

// Error implements error.
func (f *Failure) Error() string {
	if f.Panicked {
		return fmt.Sprintf("dispatcher: handler %q panicked: %v", f.HandlerID, f.Err)
	}
	return fmt.Sprintf("dispatcher: handler %q failed: %v", f.HandlerID, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Event describes the failure as an Error event carrying the failing
// handler's message, origin, location and trace.
func (f *Failure) Event() fault.Event {
	ev := fault.FromError(f.Err)
	ev.Severity = fault.Error
	return ev
}

// Outcome is the result of invoking one handler: either a handled flag or
// a failure, never both.
type Outcome struct {
	Handled bool
	Failure *Failure
}

// Failed reports whether the handler failed.
func (o Outcome) Failed() bool {
	return o.Failure != nil
}

// invoke calls h, converting panics and returned errors into a Failure.
func invoke(id string, h Handler, ev fault.Event) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Failure: &Failure{
				HandlerID: id,
				Err:       fault.NewPanicError(r, trace.Capture(0)),
				Panicked:  true,
			}}
		}
	}()

	handled, err := h.HandleFault(ev)
	if err != nil {
		return Outcome{Failure: &Failure{HandlerID: id, Err: err}}
	}
	return Outcome{Handled: handled}
}
