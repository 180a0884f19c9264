// Package display provides the built-in fallback handler that prints faults
// to a terminal stream.
package display

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/faultline/internal/fault"
)

// Handler writes each fault as a short report and always claims it.
type Handler struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a display handler writing to w (os.Stdout when nil).
func New(w io.Writer) *Handler {
	if w == nil {
		w = os.Stdout
	}
	return &Handler{w: w}
}

// HandleFault writes the report and reports the fault as handled.
func (h *Handler) HandleFault(ev fault.Event) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := io.WriteString(h.w, Format(ev)); err != nil {
		return false, err
	}
	return true, nil
}

// Format renders an event as
//
//	Warning <source> <message> IN <file>:<line>
//	<trace>
//
// Absent file and line render as "unknown"; an empty source is omitted.
func Format(ev fault.Event) string {
	var b strings.Builder
	b.WriteString(ev.Category().String())
	if ev.Source != "" {
		b.WriteByte(' ')
		b.WriteString(ev.Source)
	}
	b.WriteByte(' ')
	b.WriteString(ev.Message)
	b.WriteString(" IN ")
	b.WriteString(Location(ev))
	b.WriteByte('\n')
	if ev.Trace != "" {
		b.WriteString(ev.Trace)
		b.WriteByte('\n')
	}
	return b.String()
}

// Location renders "file:line" with "unknown" for absent parts.
func Location(ev fault.Event) string {
	file := ev.File
	if file == "" {
		file = fault.Unknown
	}
	line := fault.Unknown
	if ev.Line > 0 {
		line = strconv.Itoa(ev.Line)
	}
	return file + ":" + line
}
