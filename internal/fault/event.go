package fault

import (
	"time"

	"github.com/google/uuid"
)

// Event is the normalized shape every fault channel is converted into
// before dispatch. Empty strings and a zero Line mean "absent"; defaults
// such as "unknown" are applied by whoever renders the event.
type Event struct {
	// ID uniquely identifies this occurrence.
	ID uuid.UUID
	// Time is when the fault was normalized.
	Time time.Time

	Severity Severity
	Message  string
	// Source labels the origin, e.g. "store.QueryError::3" or "Shutdown".
	Source string
	File   string
	Line   int
	Trace  string
}

// NewEvent returns an event stamped with a fresh ID and the current time.
func NewEvent(sev Severity, message string) Event {
	return Event{
		ID:       uuid.New(),
		Time:     time.Now(),
		Severity: sev,
		Message:  message,
	}
}

// Category returns the severity's category.
func (e Event) Category() Category {
	return e.Severity.Category()
}

// IsNone reports whether the event carries no fault.
func (e Event) IsNone() bool {
	return e.Severity == None
}

// WithSource returns a copy with Source set.
func (e Event) WithSource(source string) Event {
	e.Source = source
	return e
}

// WithLocation returns a copy with File and Line set.
func (e Event) WithLocation(file string, line int) Event {
	e.File = file
	e.Line = line
	return e
}

// WithTrace returns a copy with Trace set.
func (e Event) WithTrace(trace string) Event {
	e.Trace = trace
	return e
}
