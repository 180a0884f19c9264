package trace

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// ArgKind discriminates the Arg variants.
type ArgKind int

const (
	// ArgScalar is a number, boolean, string or nil.
	ArgScalar ArgKind = iota
	// ArgComposite is a container such as a slice, array or map.
	ArgComposite
	// ArgHandle is a handle-like value: files, connections, channels, funcs.
	ArgHandle
	// ArgObject is any other value, identified by its type name.
	ArgObject
)

// String returns the kind name.
func (k ArgKind) String() string {
	switch k {
	case ArgScalar:
		return "scalar"
	case ArgComposite:
		return "composite"
	case ArgHandle:
		return "handle"
	case ArgObject:
		return "object"
	default:
		return "unknown"
	}
}

// Arg is a call argument recorded on a Frame.
type Arg struct {
	Kind ArgKind

	// Value holds the literal for scalars.
	Value any

	// TypeName names the type of an object argument.
	TypeName string

	// Frames is the embedded stack of an object argument that is itself a
	// fault carrying its own trace. Nil for ordinary objects.
	Frames []Frame
}

// FrameCarrier is implemented by fault objects that recorded the stack they
// were created on.
type FrameCarrier interface {
	StackFrames() []Frame
}

// Scalar returns a scalar argument.
func Scalar(v any) Arg {
	return Arg{Kind: ArgScalar, Value: v}
}

// Composite returns a container argument.
func Composite() Arg {
	return Arg{Kind: ArgComposite}
}

// Handle returns a handle argument.
func Handle() Arg {
	return Arg{Kind: ArgHandle}
}

// Object returns an object argument. frames may be nil.
func Object(typeName string, frames []Frame) Arg {
	return Arg{Kind: ArgObject, TypeName: typeName, Frames: frames}
}

// ValueOf classifies an arbitrary Go value.
func ValueOf(v any) Arg {
	switch x := v.(type) {
	case nil:
		return Scalar(nil)
	case Arg:
		return x
	case FrameCarrier:
		if isNilPointer(v) {
			return Object(typeName(v), nil)
		}
		return Object(typeName(v), x.StackFrames())
	case io.Closer:
		return Handle()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return Scalar(v)
	case reflect.Slice, reflect.Array, reflect.Map:
		return Composite()
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Uintptr:
		return Handle()
	default:
		return Object(typeName(v), nil)
	}
}

// Args classifies each value in vs.
func Args(vs ...any) []Arg {
	out := make([]Arg, len(vs))
	for i, v := range vs {
		out[i] = ValueOf(v)
	}
	return out
}

// literal renders a scalar value.
func (a Arg) literal() string {
	if a.Value == nil {
		return "nil"
	}
	rv := reflect.ValueOf(a.Value)
	switch rv.Kind() {
	case reflect.String:
		return "'" + rv.String() + "'"
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	default:
		return fmt.Sprint(a.Value)
	}
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
