package dispatcher

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/faultline/internal/fault"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-handler metrics
	handlerMetrics map[string]*HandlerMetrics

	// Global counters
	totalDispatches uint64
	totalHandled    uint64
	totalUnhandled  uint64
	totalDropped    uint64
	totalFailures   uint64
	totalPanics     uint64

	// Timing
	totalDuration time.Duration

	prom *promCollectors
}

// HandlerMetrics holds metrics for a single handler.
type HandlerMetrics struct {
	ID           string
	Invocations  uint64
	Handled      uint64
	Failures     uint64
	LastFailure  time.Time
	LastHandled  time.Time
	LastPanicked bool
}

type promCollectors struct {
	events    *prometheus.CounterVec
	handled   *prometheus.CounterVec
	unhandled prometheus.Counter
	failures  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates a new in-memory metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		handlerMetrics: make(map[string]*HandlerMetrics),
	}
}

// NewPrometheusMetrics creates a metrics collector that also exports its
// counters through reg. Collectors already registered on reg are reused.
func NewPrometheusMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := NewMetrics()
	if reg == nil {
		return m, nil
	}

	p := &promCollectors{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faultline_events_total",
			Help: "Fault events dispatched, by category.",
		}, []string{"category"}),
		handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faultline_events_handled_total",
			Help: "Fault events claimed, by handler.",
		}, []string{"handler"}),
		unhandled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faultline_events_unhandled_total",
			Help: "Fault events no handler claimed.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faultline_handler_failures_total",
			Help: "Handler invocations that panicked or returned an error.",
		}, []string{"handler"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "faultline_dispatch_duration_seconds",
			Help:    "Time spent dispatching one fault event.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	var err error
	p.events, err = register(reg, p.events)
	if err != nil {
		return nil, err
	}
	p.handled, err = register(reg, p.handled)
	if err != nil {
		return nil, err
	}
	p.unhandled, err = register(reg, p.unhandled)
	if err != nil {
		return nil, err
	}
	p.failures, err = register(reg, p.failures)
	if err != nil {
		return nil, err
	}
	p.duration, err = register(reg, p.duration)
	if err != nil {
		return nil, err
	}

	m.prom = p
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDispatch records a completed dispatch.
func (m *Metrics) RecordDispatch(ev fault.Event, handledBy string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration
	if handledBy == "" {
		m.totalUnhandled++
	} else {
		m.totalHandled++
		hm := m.handler(handledBy)
		hm.Handled++
		hm.LastHandled = time.Now()
	}

	if m.prom != nil {
		m.prom.events.WithLabelValues(ev.Category().String()).Inc()
		m.prom.duration.Observe(duration.Seconds())
		if handledBy == "" {
			m.prom.unhandled.Inc()
		} else {
			m.prom.handled.WithLabelValues(handledBy).Inc()
		}
	}
}

// RecordInvocation records that a handler was called.
func (m *Metrics) RecordInvocation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler(id).Invocations++
}

// RecordFailure records a handler failure.
func (m *Metrics) RecordFailure(id string, panicked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalFailures++
	if panicked {
		m.totalPanics++
	}
	hm := m.handler(id)
	hm.Failures++
	hm.LastFailure = time.Now()
	hm.LastPanicked = panicked

	if m.prom != nil {
		m.prom.failures.WithLabelValues(id).Inc()
	}
}

// RecordDropped records an event dropped before dispatch.
func (m *Metrics) RecordDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalDropped++
}

// handler must be called with m.mu held.
func (m *Metrics) handler(id string) *HandlerMetrics {
	hm := m.handlerMetrics[id]
	if hm == nil {
		hm = &HandlerMetrics{ID: id}
		m.handlerMetrics[id] = hm
	}
	return hm
}

// TotalDispatches returns the number of dispatched events.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// TotalHandled returns the number of events a handler claimed.
func (m *Metrics) TotalHandled() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalHandled
}

// TotalUnhandled returns the number of events no handler claimed.
func (m *Metrics) TotalUnhandled() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalUnhandled
}

// TotalDropped returns the number of severity-less events dropped.
func (m *Metrics) TotalDropped() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDropped
}

// TotalFailures returns the number of handler failures.
func (m *Metrics) TotalFailures() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalFailures
}

// TotalPanics returns the number of handler panics recovered.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// AverageDuration returns the average dispatch duration.
func (m *Metrics) AverageDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.totalDispatches == 0 {
		return 0
	}
	return m.totalDuration / time.Duration(m.totalDispatches)
}

// HandlerStats returns metrics for one handler.
func (m *Metrics) HandlerStats(id string) *HandlerMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hm := m.handlerMetrics[id]
	if hm == nil {
		return nil
	}
	snapshot := *hm
	return &snapshot
}

// FailingHandlers returns the n handlers with the most failures.
func (m *Metrics) FailingHandlers(n int) []*HandlerMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*HandlerMetrics, 0, len(m.handlerMetrics))
	for _, hm := range m.handlerMetrics {
		if hm.Failures > 0 {
			snapshot := *hm
			out = append(out, &snapshot)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Failures != out[j].Failures {
			return out[i].Failures > out[j].Failures
		}
		return out[i].ID < out[j].ID
	})

	n = max(0, min(n, len(out)))
	return out[:n]
}

// Reset clears the in-memory counters. Exported Prometheus counters are
// monotonic and are left untouched.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlerMetrics = make(map[string]*HandlerMetrics)
	m.totalDispatches = 0
	m.totalHandled = 0
	m.totalUnhandled = 0
	m.totalDropped = 0
	m.totalFailures = 0
	m.totalPanics = 0
	m.totalDuration = 0
}
