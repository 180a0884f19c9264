package dispatcher

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/dshills/faultline/internal/fault"
	"github.com/dshills/faultline/internal/handlers/display"
	"github.com/dshills/faultline/internal/logging"
)

// Dispatcher delivers fault events to registered handlers in priority order.
type Dispatcher struct {
	registry *Registry

	mu       sync.RWMutex
	fallback Handler
	logger   *logging.Logger

	// Configuration
	config Config

	// Metrics
	metrics *Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFallback sets the handler that receives handler failures.
func WithFallback(h Handler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.fallback = h
		}
	}
}

// WithLogger sets the logger used for registry and failure messages.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l.WithComponent("dispatcher")
		}
	}
}

// WithMetrics sets the metrics collector, overriding the one built from
// Config.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a dispatcher with the given configuration.
func New(config Config, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		registry: NewRegistry(),
		fallback: display.New(os.Stdout),
		logger:   logging.Null(),
		config:   config,
	}

	if config.EnableMetrics {
		m, err := NewPrometheusMetrics(config.Registerer)
		if err != nil {
			return nil, err
		}
		d.metrics = m
	}

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewWithDefaults creates a dispatcher with default configuration.
func NewWithDefaults(opts ...Option) *Dispatcher {
	// The default config exports no collectors, so New cannot fail.
	d, _ := New(DefaultConfig(), opts...)
	return d
}

// Register adds h under id with the given priority, replacing any handler
// already registered under id.
func (d *Dispatcher) Register(id string, h Handler, priority int) error {
	if id == "" {
		return ErrEmptyID
	}
	if h == nil {
		return ErrNilHandler
	}
	d.registry.Register(id, h, priority)
	d.log().WithField("handler", id).Debug("registered handler with priority %d", priority)
	return nil
}

// RegisterFunc registers a function as a handler.
func (d *Dispatcher) RegisterFunc(id string, fn HandlerFunc, priority int) error {
	if fn == nil {
		return ErrNilHandler
	}
	return d.Register(id, fn, priority)
}

// Unregister removes the handler registered under id.
func (d *Dispatcher) Unregister(id string) bool {
	ok := d.registry.Unregister(id)
	if ok {
		d.log().WithField("handler", id).Debug("unregistered handler")
	}
	return ok
}

// Get returns the entry registered under id.
func (d *Dispatcher) Get(id string) (Entry, bool) {
	return d.registry.Get(id)
}

// SetPriority changes the priority of a registered handler.
func (d *Dispatcher) SetPriority(id string, priority int) bool {
	ok := d.registry.SetPriority(id, priority)
	if ok {
		d.log().WithField("handler", id).Debug("changed handler priority to %d", priority)
	}
	return ok
}

// Priority returns the priority of a registered handler.
func (d *Dispatcher) Priority(id string) (int, bool) {
	return d.registry.Priority(id)
}

// List returns handler identifiers in dispatch order.
func (d *Dispatcher) List() []string {
	return d.registry.List()
}

// Sorted returns the registered entries in dispatch order.
func (d *Dispatcher) Sorted() []Entry {
	return d.registry.Sorted()
}

// Len returns the number of registered handlers.
func (d *Dispatcher) Len() int {
	return d.registry.Len()
}

// Clear removes all handlers.
func (d *Dispatcher) Clear() {
	d.registry.Clear()
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Metrics returns the metrics collector, or nil when metrics are disabled.
func (d *Dispatcher) Metrics() *Metrics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.metrics
}

// SetFallback replaces the failure fallback handler.
func (d *Dispatcher) SetFallback(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = h
}

// SetLogger replaces the logger.
func (d *Dispatcher) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Null()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l.WithComponent("dispatcher")
}

// Dispatch delivers ev to the registered handlers in priority order and
// reports whether one of them handled it. Events with severity None are
// dropped. A handler that panics or returns an error does not stop
// dispatch; its failure is reported to the fallback handler only.
func (d *Dispatcher) Dispatch(ev fault.Event) bool {
	metrics := d.Metrics()
	if ev.IsNone() {
		if metrics != nil {
			metrics.RecordDropped()
		}
		return false
	}

	start := time.Now()
	handledBy := ""
	for _, e := range d.registry.Sorted() {
		if metrics != nil {
			metrics.RecordInvocation(e.ID)
		}

		out := invoke(e.ID, e.Handler, ev)
		if out.Failed() {
			d.routeFailure(out.Failure)
			continue
		}
		if out.Handled {
			handledBy = e.ID
			break
		}
	}

	if metrics != nil {
		metrics.RecordDispatch(ev, handledBy, time.Since(start))
	}
	return handledBy != ""
}

// DispatchContext is Dispatch with a cancellation check before any handler
// runs. Dispatch itself is never interrupted.
func (d *Dispatcher) DispatchContext(ctx context.Context, ev fault.Event) bool {
	if ctx.Err() != nil {
		return false
	}
	return d.Dispatch(ev)
}

// routeFailure shows a handler failure through the fallback. A fault in the
// fallback itself is discarded.
func (d *Dispatcher) routeFailure(f *Failure) {
	d.log().WithFields(map[string]any{
		"handler":  f.HandlerID,
		"panicked": f.Panicked,
	}).Warn("handler failed: %v", f.Err)
	if m := d.Metrics(); m != nil {
		m.RecordFailure(f.HandlerID, f.Panicked)
	}

	d.mu.RLock()
	fallback := d.fallback
	d.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			d.log().Error("fallback handler panicked: %v", r)
		}
	}()
	if _, err := fallback.HandleFault(f.Event()); err != nil {
		d.log().Error("fallback handler failed: %v", err)
	}
}

func (d *Dispatcher) log() *logging.Logger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.logger
}
