package fault

import (
	"fmt"

	"github.com/dshills/faultline/internal/trace"
)

// Exception is a fault object: an error that records its severity, an
// internal code, where it was raised and the stack it was raised on.
type Exception struct {
	message  string
	code     int
	severity Severity
	file     string
	line     int
	frames   []trace.Frame
	cause    error
}

// NewException creates an Exception raised at the caller.
func NewException(sev Severity, message string) *Exception {
	return newException(1, sev, message)
}

// Raise creates an Exception with a formatted message raised at the caller.
func Raise(sev Severity, format string, args ...any) *Exception {
	return newException(1, sev, fmt.Sprintf(format, args...))
}

// NewExceptionSkip creates an Exception whose stack starts skip frames above
// the caller. It is meant for adapters that raise on behalf of their caller.
func NewExceptionSkip(skip int, sev Severity, message string) *Exception {
	return newException(skip+1, sev, message)
}

func newException(skip int, sev Severity, message string) *Exception {
	frames := trace.Capture(skip + 1)
	e := &Exception{
		message:  message,
		severity: sev,
		frames:   frames,
	}
	if len(frames) > 0 {
		e.file = frames[0].File
		e.line = frames[0].Line
	}
	return e
}

// WithCode sets the internal code.
func (e *Exception) WithCode(code int) *Exception {
	e.code = code
	return e
}

// WithLocation overrides where the exception reports it was raised. The
// recorded stack is kept.
func (e *Exception) WithLocation(file string, line int) *Exception {
	e.file = file
	e.line = line
	return e
}

// WithCause sets the wrapped error.
func (e *Exception) WithCause(err error) *Exception {
	e.cause = err
	return e
}

// Error implements error.
func (e *Exception) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the cause.
func (e *Exception) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Message returns the message without the cause.
func (e *Exception) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Severity implements Severitier.
func (e *Exception) Severity() Severity {
	if e == nil {
		return Error
	}
	return e.severity
}

// Code implements Coder.
func (e *Exception) Code() int {
	if e == nil {
		return 0
	}
	return e.code
}

// Location implements Locator.
func (e *Exception) Location() (string, int) {
	if e == nil {
		return "", 0
	}
	return e.file, e.line
}

// StackFrames implements trace.FrameCarrier.
func (e *Exception) StackFrames() []trace.Frame {
	if e == nil {
		return nil
	}
	return e.frames
}

// Trace implements Tracer. Frames are numbered from zero.
func (e *Exception) Trace() string {
	if e == nil || len(e.frames) == 0 {
		return ""
	}
	return trace.Reconstruct(0, e.frames)
}
