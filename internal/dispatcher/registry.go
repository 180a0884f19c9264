package dispatcher

import (
	"cmp"
	"slices"
	"sync"
)

// DefaultPriority is the priority used when callers have no preference.
const DefaultPriority = 10

// Entry is a registered handler.
type Entry struct {
	ID       string
	Priority int
	Handler  Handler

	seq uint64
}

// Registry holds handlers keyed by identifier together with a cached view
// sorted into dispatch order.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	nextSeq uint64

	sorted []Entry
	dirty  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register adds h under id, replacing any handler already registered there.
// A replaced handler keeps its position among equal priorities.
func (r *Registry) Register(id string, h Handler, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.Handler = h
		e.Priority = priority
	} else {
		r.nextSeq++
		r.entries[id] = &Entry{ID: id, Priority: priority, Handler: h, seq: r.nextSeq}
	}
	r.dirty = true
}

// Unregister removes the handler registered under id. Unknown ids are ignored.
// The remaining handlers keep their relative order without a re-sort.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)

	if !r.dirty {
		r.sorted = slices.DeleteFunc(slices.Clone(r.sorted), func(e Entry) bool {
			return e.ID == id
		})
	}
	return true
}

// Get returns the entry registered under id.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// SetPriority changes the priority of a registered handler.
// It reports false when id is not registered.
func (r *Registry) SetPriority(id string, priority int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	if e.Priority != priority {
		e.Priority = priority
		r.dirty = true
	}
	return true
}

// Priority returns the priority of the handler registered under id.
func (r *Registry) Priority(id string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return 0, false
	}
	return e.Priority, true
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear removes every handler.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*Entry)
	r.sorted = nil
	r.dirty = false
}

// List returns all identifiers in dispatch order.
func (r *Registry) List() []string {
	sorted := r.Sorted()
	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.ID
	}
	return ids
}

// Sorted returns the entries in dispatch order: descending priority, ties in
// registration order. The returned slice is shared and must not be modified.
func (r *Registry) Sorted() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dirty {
		r.sorted = r.sortEntries()
		r.dirty = false
	}
	return r.sorted
}

// sortEntries must be called with r.mu held.
func (r *Registry) sortEntries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}
