package fault

import (
	"reflect"
	"strconv"
)

// Unknown is the placeholder shown for absent file and line values.
const Unknown = "unknown"

// FromError normalizes a fault object into an Event.
//
// Severity comes from Severitier (default Error), file and line from
// Locator, the native trace from Tracer. When there is no native trace a
// one-line placeholder naming the raise site is used instead.
func FromError(err error) Event {
	sev := Error
	if s, ok := err.(Severitier); ok {
		sev = s.Severity()
	}

	ev := NewEvent(sev, err.Error()).WithSource(SourceOf(err))

	if l, ok := err.(Locator); ok {
		ev = ev.WithLocation(l.Location())
	}

	var native string
	if t, ok := err.(Tracer); ok {
		native = t.Trace()
	}
	if native == "" {
		native = placeholderTrace(ev.File, ev.Line)
	}
	return ev.WithTrace(native)
}

// SourceOf returns a stable label combining the error's type and internal
// code, e.g. "fault.Exception::0".
func SourceOf(err error) string {
	if err == nil {
		return ""
	}
	code := 0
	if c, ok := err.(Coder); ok {
		code = c.Code()
	}
	return typeName(err) + "::" + strconv.Itoa(code)
}

func placeholderTrace(file string, line int) string {
	if file == "" {
		file = Unknown
	}
	where := Unknown
	if line > 0 {
		where = strconv.Itoa(line)
	}
	return "#0 {main}\n\tthrown in " + file + " on " + where
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
