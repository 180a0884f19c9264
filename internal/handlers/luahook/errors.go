package luahook

import "errors"

// Errors for scripted handlers.
var (
	// ErrClosed is returned when a closed handler receives an event.
	ErrClosed = errors.New("luahook: handler is closed")

	// ErrNoHandleFunc is returned when a script does not define handle.
	ErrNoHandleFunc = errors.New("luahook: script does not define a global function \"handle\"")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("luahook: script timed out")
)
