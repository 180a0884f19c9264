package fault

import (
	"fmt"

	"github.com/dshills/faultline/internal/trace"
)

// PanicError wraps a recovered panic value as a fault object.
type PanicError struct {
	Value  any
	frames []trace.Frame
}

// NewPanicError wraps a recovered value. frames should be the stack
// captured inside the recovering defer; the panic machinery frames are
// trimmed so the first frame is the panic site.
func NewPanicError(value any, frames []trace.Frame) *PanicError {
	return &PanicError{
		Value:  value,
		frames: trace.TrimPanic(frames),
	}
}

// Error implements error.
func (e *PanicError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if e == nil {
		return nil
	}
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Severity implements Severitier. Panics are always errors.
func (e *PanicError) Severity() Severity {
	return Error
}

// Location implements Locator: the panic site, if known.
func (e *PanicError) Location() (string, int) {
	if e == nil || len(e.frames) == 0 {
		return "", 0
	}
	return e.frames[0].File, e.frames[0].Line
}

// StackFrames implements trace.FrameCarrier.
func (e *PanicError) StackFrames() []trace.Frame {
	if e == nil {
		return nil
	}
	return e.frames
}

// Trace implements Tracer. Frames are numbered from zero.
func (e *PanicError) Trace() string {
	if e == nil || len(e.frames) == 0 {
		return ""
	}
	return trace.Reconstruct(0, e.frames)
}
