// Package jsonl provides a fault handler that appends each event as one
// JSON object per line.
package jsonl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/tidwall/sjson"

	"github.com/dshills/faultline/internal/fault"
)

// ErrClosed is returned when a closed handler receives an event.
var ErrClosed = errors.New("jsonl: handler is closed")

var setBytes = sjson.SetBytes

// Handler writes events as JSON lines. It leaves events unclaimed unless
// built WithClaim.
type Handler struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	claim  bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithClaim makes the handler report written events as handled.
func WithClaim(claim bool) Option {
	return func(h *Handler) {
		h.claim = claim
	}
}

// New creates a handler writing to w. The caller owns w.
func New(w io.Writer, opts ...Option) *Handler {
	h := &Handler{w: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open creates a handler appending to the file at path, creating it if
// needed. Close closes the file.
func Open(path string, opts ...Option) (*Handler, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	h := New(f, opts...)
	h.closer = f
	return h, nil
}

// Encode renders ev as a single-line JSON object. Absent source, file,
// line and trace are omitted.
func Encode(ev fault.Event) ([]byte, error) {
	doc := []byte("{}")
	var encErr error
	set := func(path string, value any) {
		if encErr != nil {
			return
		}
		out, err := setBytes(doc, path, value)
		if err != nil {
			encErr = fmt.Errorf("jsonl: encode %s: %w", path, err)
			return
		}
		doc = out
	}

	set("id", ev.ID.String())
	set("time", ev.Time.UTC().Format(time.RFC3339Nano))
	set("severity", int(ev.Severity))
	set("severity_name", ev.Severity.String())
	set("category", ev.Category().String())
	set("message", ev.Message)
	if ev.Source != "" {
		set("source", ev.Source)
	}
	if ev.File != "" {
		set("file", ev.File)
	}
	if ev.Line > 0 {
		set("line", ev.Line)
	}
	if ev.Trace != "" {
		set("trace", ev.Trace)
	}
	if encErr != nil {
		return nil, encErr
	}
	return doc, nil
}

// HandleFault appends ev as one line.
func (h *Handler) HandleFault(ev fault.Event) (bool, error) {
	line, err := Encode(ev)
	if err != nil {
		return false, err
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.w == nil {
		return false, ErrClosed
	}
	if _, err := h.w.Write(line); err != nil {
		return false, err
	}
	return h.claim, nil
}

// Close closes the underlying file when the handler opened it.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.w = nil
	if h.closer == nil {
		return nil
	}
	err := h.closer.Close()
	h.closer = nil
	return err
}
