package dispatcher

import "github.com/prometheus/client_golang/prometheus"

// Config holds dispatcher configuration options.
type Config struct {
	// EnableMetrics enables dispatch counting and timing.
	EnableMetrics bool

	// Registerer receives the Prometheus collectors when metrics are
	// enabled. Nil keeps the metrics in memory only.
	Registerer prometheus.Registerer
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithRegisterer returns a copy of the config with metrics enabled and
// exported through reg.
func (c Config) WithRegisterer(reg prometheus.Registerer) Config {
	c.EnableMetrics = true
	c.Registerer = reg
	return c
}
