package intercept

import (
	"sync"
	"time"

	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/trace"
)

// Record is a fault that aborted execution before it could be dispatched.
type Record struct {
	Severity fault.Severity
	Message  string
	File     string
	Line     int
	Frames   []trace.Frame
	Time     time.Time
}

// Recorder remembers the most recent aborting fault.
type Recorder interface {
	Record(r Record)
	Last() (Record, bool)
	Clear()
}

// MemoryRecorder keeps the last record in memory.
type MemoryRecorder struct {
	mu   sync.Mutex
	last *Record
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record replaces the last record.
func (m *MemoryRecorder) Record(r Record) {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &r
}

// Last returns the last record, if any.
func (m *MemoryRecorder) Last() (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return Record{}, false
	}
	return *m.last, true
}

// Clear forgets the last record.
func (m *MemoryRecorder) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = nil
}
