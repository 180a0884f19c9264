package trace

import (
	"runtime"
	"strings"
	"unicode"
)

// maxCaptureDepth bounds the number of frames Capture resolves.
const maxCaptureDepth = 64

// CallKind describes how a frame's function was invoked.
type CallKind int

const (
	// CallFunction is a call to a package-level function.
	CallFunction CallKind = iota
	// CallInstance is a method call on a value.
	CallInstance
	// CallStatic is a type-scoped call without a receiver value.
	CallStatic
)

// Separator returns the token placed between type and function name.
func (k CallKind) Separator() string {
	switch k {
	case CallInstance:
		return "->"
	case CallStatic:
		return "::"
	default:
		return ""
	}
}

// Frame is a single call site.
type Frame struct {
	// File is the source file; empty for frames without file information.
	File string
	// Line is the line within File.
	Line int
	// Package is the short package name for package-level functions.
	Package string
	// Type is the receiver type for type-scoped calls.
	Type string
	// Function is the function or method name.
	Function string
	// Call selects how Type and Function are joined.
	Call CallKind
	// Args are the call arguments, when known.
	Args []Arg
}

// HasFile reports whether the frame carries file information.
func (f Frame) HasFile() bool {
	return f.File != ""
}

// Symbol returns the callable's display name, e.g. "Store->Save" or
// "main.run".
func (f Frame) Symbol() string {
	if f.Type != "" {
		sep := f.Call.Separator()
		if sep == "" {
			sep = "->"
		}
		return f.Type + sep + f.Function
	}
	if f.Package != "" {
		return f.Package + "." + f.Function
	}
	return f.Function
}

// Capture returns the current goroutine's stack, innermost first.
// skip is the number of frames to omit above the caller of Capture:
// Capture(0) starts at the function that called Capture.
func Capture(skip int) []Frame {
	pc := make([]uintptr, maxCaptureDepth)
	// +2 skips runtime.Callers and Capture itself.
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return []Frame{}
	}

	frames := runtime.CallersFrames(pc[:n])
	out := make([]Frame, 0, n)
	for {
		fr, more := frames.Next()
		out = append(out, FromRuntime(fr))
		if !more {
			break
		}
	}
	return out
}

// FromRuntime converts a resolved runtime frame.
func FromRuntime(fr runtime.Frame) Frame {
	pkg, typ, fn := SplitFunction(fr.Function)
	f := Frame{
		File:     fr.File,
		Line:     fr.Line,
		Package:  pkg,
		Type:     typ,
		Function: fn,
	}
	if typ != "" {
		f.Call = CallInstance
		f.Package = ""
	}
	return f
}

// SplitFunction splits a fully qualified Go function name into its short
// package name, receiver type and function name.
//
//	"example.com/app/store.(*Store).Save" -> "store", "Store", "Save"
//	"example.com/app/store.Open.func1"   -> "store", "", "Open.func1"
//	"main.main"                          -> "main", "", "main"
func SplitFunction(name string) (pkg, typ, fn string) {
	if name == "" {
		return "", "", ""
	}

	rest := name
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		rest = rest[i+1:]
	}

	dot := strings.Index(rest, ".")
	if dot < 0 {
		return "", "", rest
	}
	pkg = rest[:dot]
	sym := rest[dot+1:]

	// Pointer receiver: (*T).Method
	if strings.HasPrefix(sym, "(") {
		if end := strings.Index(sym, ")."); end > 0 {
			typ = strings.TrimPrefix(sym[1:end], "*")
			return pkg, typ, sym[end+2:]
		}
		return pkg, "", sym
	}

	// Value receiver T.Method, as opposed to closures such as Func.func1.
	if i := strings.Index(sym, "."); i > 0 {
		head, tail := sym[:i], sym[i+1:]
		if isExported(head) && !isClosureName(tail) {
			return pkg, head, tail
		}
	}

	return pkg, "", sym
}

// TrimPanic removes the frames that belong to the panic machinery from a
// stack captured inside a deferred recover, so the result starts at the
// statement that panicked.
func TrimPanic(frames []Frame) []Frame {
	start := -1
	for i, f := range frames {
		if f.Package == "runtime" && f.Function == "gopanic" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return frames
	}
	for start < len(frames) && frames[start].Package == "runtime" {
		start++
	}
	return frames[start:]
}

func isExported(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func isClosureName(s string) bool {
	return strings.HasPrefix(s, "func") ||
		strings.HasPrefix(s, "gowrap") ||
		strings.HasPrefix(s, "deferwrap")
}
