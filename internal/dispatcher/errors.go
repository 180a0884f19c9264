package dispatcher

import "errors"

// Dispatcher errors.
var (
	// ErrEmptyID indicates a handler was registered without an identifier.
	ErrEmptyID = errors.New("dispatcher: empty handler id")

	// ErrNilHandler indicates a nil handler was registered.
	ErrNilHandler = errors.New("dispatcher: nil handler")
)
