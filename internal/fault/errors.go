package fault

import "errors"

// Fault package errors.
var (
	// ErrUnknownSeverity is returned when a severity name cannot be parsed.
	ErrUnknownSeverity = errors.New("fault: unknown severity")
)

// Severitier is implemented by fault objects that carry a severity.
type Severitier interface {
	Severity() Severity
}

// Coder is implemented by fault objects that carry an internal code.
type Coder interface {
	Code() int
}

// Locator is implemented by fault objects that know where they were raised.
type Locator interface {
	Location() (file string, line int)
}

// Tracer is implemented by fault objects that carry a rendered native trace.
type Tracer interface {
	Trace() string
}
