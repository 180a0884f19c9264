package trace

import (
	"strconv"
	"strings"
)

const (
	// DefaultStart is the frame number the first rendered frame receives.
	DefaultStart = 1

	// DefaultMaxDepth bounds how many levels of nested fault traces are
	// expanded inside argument lists.
	DefaultMaxDepth = 8

	internalFunction = "[internal function]: "
)

// Reconstructor renders frames as a numbered trace.
type Reconstructor struct {
	// MaxDepth bounds nested trace expansion. Zero means DefaultMaxDepth.
	MaxDepth int
}

// NewReconstructor returns a Reconstructor with the given depth cap.
func NewReconstructor(maxDepth int) *Reconstructor {
	return &Reconstructor{MaxDepth: maxDepth}
}

// Reconstruct renders frames numbered from start. When frames is nil the
// calling goroutine's stack is captured, starting at the caller of
// Reconstruct. An empty non-nil slice renders as "".
func (r *Reconstructor) Reconstruct(start int, frames []Frame) string {
	if frames == nil {
		frames = Capture(1)
	}
	return r.render(start, frames)
}

// Reconstruct renders frames with a default Reconstructor. When frames is
// nil the caller's stack is captured.
func Reconstruct(start int, frames []Frame) string {
	if frames == nil {
		frames = Capture(1)
	}
	var r Reconstructor
	return r.render(start, frames)
}

func (r *Reconstructor) render(start int, frames []Frame) string {
	var b strings.Builder
	r.write(&b, start, frames, 0)
	return b.String()
}

func (r *Reconstructor) maxDepth() int {
	if r == nil || r.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return r.MaxDepth
}

func (r *Reconstructor) write(b *strings.Builder, start int, frames []Frame, depth int) {
	for i, f := range frames {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(start + i))
		b.WriteByte(' ')

		if !f.HasFile() {
			b.WriteString(internalFunction)
		} else {
			b.WriteString(NormalizePath(f.File))
			b.WriteByte('(')
			b.WriteString(strconv.Itoa(f.Line))
			b.WriteString("): ")
		}

		b.WriteString(f.Symbol())
		b.WriteByte('(')
		for j, a := range f.Args {
			if j > 0 {
				b.WriteString(", ")
			}
			r.writeArg(b, a, depth)
		}
		b.WriteByte(')')
	}
}

func (r *Reconstructor) writeArg(b *strings.Builder, a Arg, depth int) {
	switch a.Kind {
	case ArgScalar:
		b.WriteString(a.literal())
	case ArgComposite:
		b.WriteString("Array")
	case ArgHandle:
		b.WriteString("Resource")
	case ArgObject:
		b.WriteString(a.TypeName)
		if len(a.Frames) > 0 && depth+1 < r.maxDepth() {
			b.WriteByte('\n')
			r.write(b, DefaultStart, a.Frames, depth+1)
		}
	}
}

// NormalizePath converts path separators to forward slashes.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
